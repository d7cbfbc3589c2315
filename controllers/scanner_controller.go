// file: controllers/scanner_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"ticket-gate/apiclient"
	"ticket-gate/logger"
	"ticket-gate/middleware"
	"ticket-gate/models"
	"ticket-gate/qrscan"
	"ticket-gate/scanner"
	"ticket-gate/session"
	"ticket-gate/websocket"
)

// ScannerController serves the gate scanner: the page, its websocket and a JSON
// endpoint for devices that decode QR codes themselves.
type ScannerController struct {
	Socket websocket.Options
}

// NewScannerController builds the controller around the websocket options.
func NewScannerController(opts websocket.Options) *ScannerController {
	return &ScannerController{Socket: opts}
}

// ShowScanner renders the camera page with the operator's mode banner.
func (sc *ScannerController) ShowScanner(c *gin.Context) {
	user, _ := middleware.CurrentSession(c).User()
	mode := scanner.ClassifyMode(user)
	logger.Info.Printf("[ShowScanner] %s opened the scanner in %s mode", user.Username, mode)

	c.HTML(http.StatusOK, "scanner.html", gin.H{
		"Username":       user.Username,
		"Mode":           mode.String(),
		"Banner":         mode.Banner(),
		"ScanTypes":      models.ScanTypes,
		"WebsocketPath":  "/scanner/ws",
		"DisplaySeconds": int(sc.displayWindow().Seconds()),
	})
}

func (sc *ScannerController) displayWindow() time.Duration {
	if sc.Socket.DisplayWindow > 0 {
		return sc.Socket.DisplayWindow
	}
	return scanner.DefaultDisplayWindow
}

// ScanSocket upgrades to the scanner websocket for the current session.
func (sc *ScannerController) ScanSocket(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	user, _ := sess.User()
	websocket.ServeScanner(c.Writer, c.Request, session.Snapshot{Token: sess.Token(), User: user}, sc.Socket)
}

// scanRequest is the body of POST /scanner/scan.
type scanRequest struct {
	Payload  string `json:"payload" binding:"required"`
	ScanType string `json:"scan_type"`
	Location string `json:"location"`
}

// Scan runs one workflow cycle for a payload decoded on the device.
func (sc *ScannerController) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is required"})
		return
	}

	payload, err := qrscan.ParsePayload(req.Payload)
	if err != nil {
		logger.Warn.Printf("[Scan] Rejected payload from %s: %v", currentUserName(c), err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": websocket.MsgInvalidQR})
		return
	}
	scanType, err := models.ParseScanType(req.ScanType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	api := middleware.API(c)
	user, _ := middleware.CurrentSession(c).User()
	wf := scanner.New(scanner.Config{
		Tickets:       api.Tickets,
		Concerts:      api.Concerts,
		Scans:         api.Scans,
		User:          user,
		Observer:      sc.Socket.Observer,
		DisplayWindow: sc.Socket.DisplayWindow,
	})
	defer wf.Close()
	wf.SetScanType(scanType)
	wf.SetLocation(strings.TrimSpace(req.Location))

	out := wf.Handle(c.Request.Context(), payload.TicketNumber)
	if c.IsAborted() {
		return
	}

	body := gin.H{
		"outcome": out.Kind.String(),
		"message": out.Message,
		"result":  out.Result,
	}
	switch out.Kind {
	case scanner.OutcomeSuccess:
		body["display_ms"] = wf.DisplayWindow().Milliseconds()
		c.JSON(http.StatusOK, body)
	case scanner.OutcomeRejected:
		c.JSON(http.StatusConflict, body)
	default:
		status := http.StatusBadGateway
		if errors.Is(out.Err, apiclient.ErrNotFound) {
			status = http.StatusNotFound
		} else if s := statusFor(out.Err); s != http.StatusBadGateway {
			status = s
		}
		c.JSON(status, body)
	}
}
