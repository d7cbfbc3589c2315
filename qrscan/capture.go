// Package qrscan turns a stream of camera frames into ticket scan events.
// File: qrscan/capture.go
package qrscan

import (
	"context"
	"image"
	"sync"

	"ticket-gate/logger"
)

// Frame is one unit from a capture device: either an image to decode, or text a
// device has already decoded itself.
type Frame struct {
	Image image.Image
	Text  string
}

// Source is a camera-like device. Close releases it.
type Source interface {
	Frames() <-chan Frame
	Close() error
}

// Decoder extracts QR text from an image. Any error means "no code in this frame".
type Decoder interface {
	Decode(img image.Image) (string, error)
}

// EventKind distinguishes the two things a capture reports.
type EventKind int

const (
	EventDecoded EventKind = iota + 1
	EventFormatError
)

func (k EventKind) String() string {
	switch k {
	case EventDecoded:
		return "decoded"
	case EventFormatError:
		return "formatError"
	}
	return "unknown"
}

// Event is delivered to the capture's handler.
type Event struct {
	Kind    EventKind
	Payload Payload
	Err     error
}

// Handler consumes capture events. It is called from the Run goroutine.
type Handler func(Event)

// Capture is a single-shot decode loop: after Start it reports the first valid
// payload exactly once, disarms itself, and ignores frames until Start is called
// again. Malformed payloads are reported and scanning continues.
type Capture struct {
	src    Source
	dec    Decoder
	handle Handler

	mu        sync.Mutex
	armed     bool
	closeOnce sync.Once
	closeErr  error
}

// NewCapture wires a source, a decoder and a handler. The capture starts disarmed.
func NewCapture(src Source, dec Decoder, handle Handler) *Capture {
	return &Capture{src: src, dec: dec, handle: handle}
}

// Start arms the capture for one decode.
func (c *Capture) Start() {
	c.mu.Lock()
	c.armed = true
	c.mu.Unlock()
	logger.Debug.Println("[Capture.Start] Scanner armed")
}

// Stop disarms the capture without releasing the source.
func (c *Capture) Stop() {
	c.mu.Lock()
	c.armed = false
	c.mu.Unlock()
}

// Scanning reports whether the capture is armed.
func (c *Capture) Scanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Run consumes frames until ctx is done or the source is exhausted. The source is
// released on every exit path.
func (c *Capture) Run(ctx context.Context) error {
	defer c.Close()

	frames := c.src.Frames()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			c.process(f)
		}
	}
}

// Close disarms the capture and releases the source. Safe to call more than once.
func (c *Capture) Close() error {
	c.Stop()
	c.closeOnce.Do(func() {
		c.closeErr = c.src.Close()
		logger.Debug.Println("[Capture.Close] Capture source released")
	})
	return c.closeErr
}

func (c *Capture) process(f Frame) {
	if !c.Scanning() {
		return
	}

	text := f.Text
	if text == "" {
		if f.Image == nil || c.dec == nil {
			return
		}
		decoded, err := c.dec.Decode(f.Image)
		if err != nil {
			// no code in this frame, not a failure
			return
		}
		text = decoded
	}

	payload, err := ParsePayload(text)
	if err != nil {
		logger.Debug.Printf("[Capture.process] Rejected payload: %v", err)
		c.handle(Event{Kind: EventFormatError, Err: err})
		return
	}

	// disarm before delivering so a second frame cannot slip in
	c.mu.Lock()
	if !c.armed {
		c.mu.Unlock()
		return
	}
	c.armed = false
	c.mu.Unlock()

	c.handle(Event{Kind: EventDecoded, Payload: payload})
}
