// Package websocket serves scanner connections: camera frames in, scan results out.
// file: websocket/connection.go
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"ticket-gate/apiclient"
	"ticket-gate/logger"
	"ticket-gate/models"
	"ticket-gate/qrscan"
	"ticket-gate/scanner"
	"ticket-gate/session"
)

// WSConn is an interface for the WebSocket connection.
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	ReadMessage() (int, []byte, error)
	Close() error
	RemoteAddr() net.Addr
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
}

// Configuration constants.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// frames arrive as base64 data URLs
	maxMessageSize = 2 << 20
	sendBuffer     = 64
	frameBuffer    = 2
)

// Connection is one scanner page: one camera capture and one scan workflow, both
// released when the page goes away.
type Connection struct {
	id   string
	conn WSConn
	send chan []byte
	user models.User

	source   *qrscan.ChanSource
	capture  *qrscan.Capture
	workflow *scanner.Workflow

	autoRearm bool
	gauge     SessionGauge

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// ---------------- connection registry ----------------

var (
	connectionsMu sync.Mutex
	connections   = make(map[*Connection]bool)
)

// registerConnection adds the given connection to the global connections map.
func registerConnection(c *Connection) {
	connectionsMu.Lock()
	connections[c] = true
	connectionsMu.Unlock()
}

// unregisterConnection removes the given connection from the global connections map.
func unregisterConnection(c *Connection) {
	connectionsMu.Lock()
	delete(connections, c)
	connectionsMu.Unlock()
}

// ConnectionCount is the number of open scanner connections.
func ConnectionCount() int {
	connectionsMu.Lock()
	defer connectionsMu.Unlock()
	return len(connections)
}

// ---------------- construction ----------------

// newConnection wires a capture and a workflow to conn. Nothing runs until start.
func newConnection(conn WSConn, snap session.Snapshot, opts Options) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:        uuid.NewString(),
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		user:      snap.User,
		autoRearm: opts.AutoRearm,
		gauge:     opts.Gauge,
		ctx:       ctx,
		cancel:    cancel,
	}

	// a scanning connection keeps its own copy of the session; a 401 clears it and
	// sends the page to the login view, which clears the cookie
	sess := session.Restore(session.NewMemoryStore(snap))
	client := opts.NewClient(sess, apiclient.NavigatorFunc(c.navigate))

	decoder := qrscan.Decoder(qrscan.NewZXingDecoder())
	if opts.NewDecoder != nil {
		decoder = opts.NewDecoder()
	}
	c.source = qrscan.NewChanSource(frameBuffer)
	c.capture = qrscan.NewCapture(c.source, decoder, c.onCaptureEvent)
	c.workflow = scanner.New(scanner.Config{
		Tickets:       client.Tickets,
		Concerts:      client.Concerts,
		Scans:         client.Scans,
		User:          snap.User,
		Presenter:     c,
		Observer:      opts.Observer,
		DisplayWindow: opts.DisplayWindow,
		OnIdle:        c.onIdle,
		AfterFunc:     opts.AfterFunc,
	})
	return c
}

// start registers the connection and launches its goroutines.
func (c *Connection) start() {
	registerConnection(c)
	if c.gauge != nil {
		c.gauge.ScanningSessionOpened()
	}
	logger.Info.Printf("[Connection.start] Scanner %s opened for %s (mode=%s)", c.id, c.user.Username, c.workflow.Mode())

	go c.readPump()
	go c.writePump()
	go func() {
		if err := c.capture.Run(c.ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn.Printf("[Connection.start] Capture for %s stopped: %v", c.id, err)
		}
	}()

	c.emit(ServerMessage{Action: actionReady, Mode: c.workflow.Mode().String(), Banner: c.workflow.Mode().Banner()})
}

// close releases the camera capture, cancels in-flight calls and any pending
// display reset. Safe to call more than once.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if err := c.capture.Close(); err != nil {
			logger.Warn.Printf("[Connection.close] Failed to release capture for %s: %v", c.id, err)
		}
		c.workflow.Close()
		unregisterConnection(c)
		if c.gauge != nil {
			c.gauge.ScanningSessionClosed()
		}
		_ = c.conn.Close()
		logger.Info.Printf("[Connection.close] Scanner %s closed", c.id)
	})
}

// ---------------- pumps ----------------

// readPump handles inbound messages from the client.
func (c *Connection) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn.Printf("[readPump] Read error from %v: %v", c.conn.RemoteAddr(), err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			logger.Debug.Printf("[readPump] Ignoring non-text messageType=%d", messageType)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn.Printf("[readPump] Invalid JSON from %v: %v", c.conn.RemoteAddr(), err)
			continue
		}
		c.handleIncoming(msg)
	}
}

// writePump handles outbound messages to the client, including periodic pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn.Printf("[writePump] Error writing to %v: %v", c.conn.RemoteAddr(), err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn.Printf("[writePump] Ping error for %v: %v", c.conn.RemoteAddr(), err)
				return
			}
		}
	}
}

// emit queues msg for the write pump, dropping it when the client is not keeping up.
func (c *Connection) emit(msg ServerMessage) {
	out, err := json.Marshal(msg)
	if err != nil {
		logger.Error.Printf("[emit] Error marshaling %s message: %v", msg.Action, err)
		return
	}
	select {
	case c.send <- out:
	default:
		logger.Warn.Printf("[emit] Dropping %s message for %s", msg.Action, c.id)
	}
}
