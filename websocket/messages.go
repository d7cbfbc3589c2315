// file: websocket/messages.go
package websocket

import (
	"errors"
	"strings"

	"ticket-gate/apiclient"
	"ticket-gate/logger"
	"ticket-gate/models"
	"ticket-gate/qrscan"
	"ticket-gate/scanner"
)

// Client actions.
const (
	actionStart     = "start"
	actionStop      = "stop"
	actionConfigure = "configure"
	actionFrame     = "frame"
	actionDecoded   = "decoded"
)

// Server actions.
const (
	actionReady       = "ready"
	actionState       = "state"
	actionScanResult  = "scanResult"
	actionClearResult = "clearResult"
	actionFormatError = "formatError"
	actionNavigate    = "navigate"
	actionError       = "error"
)

// MsgInvalidQR is shown when a decoded code is not a ticket.
const MsgInvalidQR = "Invalid QR code format"

// ClientMessage is what the scanner page sends. Image is a data URL of one camera
// frame; Text is a payload the browser already decoded itself.
type ClientMessage struct {
	Action   string `json:"action"`
	Image    string `json:"image,omitempty"`
	Text     string `json:"text,omitempty"`
	ScanType string `json:"scanType,omitempty"`
	Location string `json:"location,omitempty"`
}

// ServerMessage is what the scanner page receives.
type ServerMessage struct {
	Action    string             `json:"action"`
	Outcome   string             `json:"outcome,omitempty"`
	Message   string             `json:"message,omitempty"`
	Result    *models.ScanResult `json:"result,omitempty"`
	Scanning  *bool              `json:"scanning,omitempty"`
	Path      string             `json:"path,omitempty"`
	Mode      string             `json:"mode,omitempty"`
	Banner    string             `json:"banner,omitempty"`
	DisplayMs int64              `json:"displayMs,omitempty"`
}

// handleIncoming processes an inbound JSON message.
func (c *Connection) handleIncoming(msg ClientMessage) {
	switch msg.Action {
	case actionStart:
		c.capture.Start()
		c.emitScanning(true)
	case actionStop:
		c.capture.Stop()
		c.emitScanning(false)
	case actionConfigure:
		st, err := models.ParseScanType(msg.ScanType)
		if err != nil {
			logger.Warn.Printf("[handleIncoming] %s sent %v", c.id, err)
			c.emit(ServerMessage{Action: actionError, Message: "Unknown scan type"})
			return
		}
		c.workflow.SetScanType(st)
		c.workflow.SetLocation(strings.TrimSpace(msg.Location))
		logger.Debug.Printf("[handleIncoming] %s configured scanType=%s location=%q", c.id, st, msg.Location)
	case actionFrame:
		if !c.capture.Scanning() {
			return
		}
		img, err := qrscan.DecodeDataURL(msg.Image)
		if err != nil {
			logger.Debug.Printf("[handleIncoming] Unreadable frame from %s: %v", c.id, err)
			return
		}
		c.source.Push(qrscan.Frame{Image: img})
	case actionDecoded:
		c.source.Push(qrscan.Frame{Text: msg.Text})
	default:
		logger.Debug.Printf("[handleIncoming] Unhandled action: %s", msg.Action)
	}
}

// onCaptureEvent receives decode results from the capture goroutine.
func (c *Connection) onCaptureEvent(ev qrscan.Event) {
	switch ev.Kind {
	case qrscan.EventFormatError:
		logger.Warn.Printf("[onCaptureEvent] %s: %v", c.id, ev.Err)
		c.emit(ServerMessage{Action: actionFormatError, Message: MsgInvalidQR})
	case qrscan.EventDecoded:
		// the capture has disarmed itself; one workflow run per decode
		c.emitScanning(false)
		go func(ticketNumber string) {
			out := c.workflow.Handle(c.ctx, ticketNumber)
			if errors.Is(out.Err, scanner.ErrBusy) {
				c.emit(ServerMessage{Action: actionError, Message: out.Message})
			}
		}(ev.Payload.TicketNumber)
	}
}

// onIdle runs when the workflow returns to idle.
func (c *Connection) onIdle() {
	if c.ctx.Err() != nil {
		return
	}
	if c.autoRearm {
		c.capture.Start()
		c.emitScanning(true)
		return
	}
	c.emit(ServerMessage{Action: actionReady})
}

// navigate is the connection's 401 handler: stop scanning and send the page to login.
func (c *Connection) navigate(path string) {
	c.capture.Stop()
	if path == apiclient.LoginPath {
		path += "?expired=1"
	}
	c.emit(ServerMessage{Action: actionNavigate, Path: path})
}

func (c *Connection) emitScanning(on bool) {
	c.emit(ServerMessage{Action: actionState, Scanning: &on})
}

// ---------------- scanner.Presenter ----------------

// Show sends an outcome to the page.
func (c *Connection) Show(out scanner.Outcome) {
	msg := ServerMessage{
		Action:  actionScanResult,
		Outcome: out.Kind.String(),
		Message: out.Message,
		Result:  out.Result,
	}
	if out.Kind == scanner.OutcomeSuccess {
		msg.DisplayMs = c.workflow.DisplayWindow().Milliseconds()
	}
	c.emit(msg)
}

// Clear removes the result from the page.
func (c *Connection) Clear() {
	c.emit(ServerMessage{Action: actionClearResult})
}
