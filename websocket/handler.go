// file: websocket/handler.go
package websocket

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"ticket-gate/apiclient"
	"ticket-gate/logger"
	"ticket-gate/qrscan"
	"ticket-gate/scanner"
	"ticket-gate/session"
)

// SessionGauge counts open scanner connections.
type SessionGauge interface {
	ScanningSessionOpened()
	ScanningSessionClosed()
}

// Options configures scanner connections.
type Options struct {
	NewClient apiclient.Factory
	// NewDecoder defaults to the ZXing QR reader.
	NewDecoder func() qrscan.Decoder

	DisplayWindow time.Duration
	AutoRearm     bool
	AfterFunc     func(d time.Duration, f func()) (stop func() bool)

	Observer scanner.Observer
	Gauge    SessionGauge

	// AllowedOrigins may open a connection besides the page's own host.
	AllowedOrigins []string
}

// ServeScanner upgrades the request and runs a scanner connection for snap's user.
func ServeScanner(w http.ResponseWriter, r *http.Request, snap session.Snapshot, opts Options) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  32 << 10,
		WriteBufferSize: 4 << 10,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}

	logger.Info.Printf("[ServeScanner] Upgrading to WS: remoteAddr=%v, user=%q", r.RemoteAddr, snap.User.Username)
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		logger.Error.Printf("[ServeScanner] WebSocket upgrade error: %v", err)
		return
	}

	newConnection(wsConn, snap, opts).start()
}

// originChecker accepts same-host origins and the configured ones.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(strings.TrimRight(a, "/"), origin) {
				return true
			}
		}
		logger.Warn.Printf("[originChecker] Rejected origin %q", origin)
		return false
	}
}
