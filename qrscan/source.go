// File: qrscan/source.go
package qrscan

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // camera frames arrive as JPEG
	_ "image/png"
	"strings"
	"sync"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
)

// ---------------- channel source ----------------

// ChanSource is a Source fed in-process, e.g. by frames arriving over a websocket.
type ChanSource struct {
	mu     sync.RWMutex
	ch     chan Frame
	closed bool
}

// NewChanSource buffers up to buffer frames.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{ch: make(chan Frame, buffer)}
}

// Push enqueues f without blocking. It returns false when the frame was dropped
// because the buffer is full or the source is closed.
func (s *ChanSource) Push(f Frame) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- f:
		return true
	default:
		return false
	}
}

// Frames implements Source.
func (s *ChanSource) Frames() <-chan Frame { return s.ch }

// Close implements Source.
func (s *ChanSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

// ---------------- zxing decoder ----------------

// ZXingDecoder decodes QR codes with gozxing. Not safe for concurrent use; give
// each capture its own.
type ZXingDecoder struct {
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewZXingDecoder returns a QR-only decoder that tries harder on blurry frames.
func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{
		reader: zxqr.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode implements Decoder.
func (d *ZXingDecoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("qrscan: binarize frame: %w", err)
	}
	res, err := d.reader.Decode(bmp, d.hints)
	if err != nil {
		return "", fmt.Errorf("qrscan: %w", err)
	}
	return res.GetText(), nil
}

// ---------------- frame helpers ----------------

// ErrBadDataURL is returned for frames that are not base64 image data URLs.
var ErrBadDataURL = errors.New("qrscan: malformed image data URL")

// DecodeDataURL turns "data:image/jpeg;base64,...." (or bare base64) into an image.
func DecodeDataURL(s string) (image.Image, error) {
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 || !strings.Contains(s[:idx], ";base64") {
			return nil, ErrBadDataURL
		}
		s = s[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("qrscan: decode frame image: %w", err)
	}
	return img, nil
}
