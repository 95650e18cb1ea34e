// Package stream pushes rendered frames to WebSocket clients and routes the
// commands they send back through the dispatcher.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/OCAP2/geotime/internal/dispatcher"
	"github.com/OCAP2/geotime/pkg/streaming"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

const (
	sendChSize = 64
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	// Must be less than pongWait.
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	closeWait      = time.Second
)

// Dispatcher routes a client command to its handler.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Hub tracks connected clients. Frames are broadcast to all of them; a
// client whose send buffer is full is disconnected instead of slowing the
// timeline down.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	closed   bool
	dispatch Dispatcher
	snapshot func() streaming.FrameMessage
	upgrader ws.Upgrader
	logger   *slog.Logger
}

// NewHub creates a hub. snapshot, when set, provides the frame sent to a
// client right after it connects.
func NewHub(d Dispatcher, snapshot func() streaming.FrameMessage, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:  make(map[*client]struct{}),
		dispatch: d,
		snapshot: snapshot,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	c := newClient(uuid.NewString(), conn)
	if !h.add(c) {
		c.close()
		return
	}
	h.logger.Info("WebSocket client connected", "client", c.id, "remote", r.RemoteAddr, "clients", h.Clients())

	if h.snapshot != nil {
		if data, err := json.Marshal(h.snapshot()); err == nil {
			c.send(data)
		}
	}

	go c.writeLoop(h.logger)
	h.readLoop(c)
}

// Broadcast sends a frame to every client.
func (h *Hub) Broadcast(msg streaming.FrameMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal frame", "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if !c.send(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("WebSocket client too slow, disconnecting", "client", c.id)
		h.remove(c)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
	if ok {
		h.logger.Info("WebSocket client disconnected", "client", c.id)
	}
}

// readLoop decodes command envelopes and answers each with an ack or an
// error. It returns when the connection fails.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure, ws.CloseAbnormalClosure) {
				h.logger.Warn("WebSocket read error", "client", c.id, "error", err)
			}
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			h.reply(c, streaming.AckMessage{Type: streaming.TypeError, Error: "malformed message"})
			continue
		}
		if env.Type != streaming.TypeCommand {
			h.reply(c, streaming.AckMessage{Type: streaming.TypeError, ID: env.ID, For: env.Type, Error: "unsupported message type"})
			continue
		}

		result, err := h.dispatch.Dispatch(dispatcher.Event{
			Command:  env.Command,
			Payload:  env.Payload,
			ClientID: c.id,
		})
		if err != nil {
			h.reply(c, streaming.AckMessage{Type: streaming.TypeError, ID: env.ID, For: env.Command, Error: err.Error()})
			continue
		}
		h.reply(c, streaming.AckMessage{Type: streaming.TypeAck, ID: env.ID, For: env.Command, Result: result})

		// A paused timeline pushes no frames, so every client gets the new
		// state right away.
		if h.snapshot != nil {
			h.Broadcast(h.snapshot())
		}
	}
}

func (h *Hub) reply(c *client, ack streaming.AckMessage) {
	data, err := json.Marshal(ack)
	if err != nil {
		h.logger.Error("Failed to marshal ack", "for", ack.For, "error", err)
		return
	}
	if !c.send(data) {
		h.logger.Debug("Send channel full, dropping ack", "client", c.id, "for", ack.For)
	}
}

// client is one connection with a single write goroutine.
type client struct {
	id     string
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
}

func newClient(id string, conn *ws.Conn) *client {
	return &client{
		id:     id,
		conn:   conn,
		sendCh: make(chan []byte, sendChSize),
		done:   make(chan struct{}),
	}
}

// send queues data for the write loop. It reports false when the buffer is
// full or the client is closed.
func (c *client) send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.sendCh <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(closeWait))
		_ = c.conn.Close()
	})
}

// writeLoop drains sendCh and pings the peer. Only one writeLoop runs per
// client; it returns on error or close.
func (c *client) writeLoop(logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Warn("WebSocket SetWriteDeadline error", "client", c.id, "error", err)
				c.close()
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				logger.Debug("WebSocket write error", "client", c.id, "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		}
	}
}
