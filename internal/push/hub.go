// Package push is the outbound channel to connected front-ends.
package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("push hub closed")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Message is the envelope every pushed event travels in.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher sends an event to every connected front-end.
type Publisher interface {
	Publish(eventType string, data any) error
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks websocket clients and fans published messages out to them.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

// NewHub returns a Hub that accepts connections from any origin.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[string]*client),
	}
}

// ServeHTTP upgrades the request and registers the connection under the
// "clientId" query parameter, or a generated id when it is absent.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("clientId")
	if id == "" {
		id = uuid.New().String()
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("push: upgrade failed", "err", err)
		return
	}

	c := &client{id: id, conn: conn, send: make(chan []byte, sendBuffer)}
	hello, _ := json.Marshal(Message{Type: "status", Data: map[string]any{"sid": id}})
	c.send <- hello
	if !h.add(c) {
		conn.Close()
		return
	}
	h.logger.Debug("push: client connected", "client_id", id)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if old, ok := h.clients[c.id]; ok {
		close(old.send)
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// readPump discards inbound frames and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		h.logger.Debug("push: client disconnected", "client_id", c.id)
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Publish sends {"type": eventType, "data": data} to every client. A client
// whose buffer is full misses the message.
func (h *Hub) Publish(eventType string, data any) error {
	payload, err := json.Marshal(Message{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s message: %w", eventType, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	for id, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("push: client buffer full, dropping message", "client_id", id, "type", eventType)
		}
	}
	return nil
}

// Clients returns the connected client ids, sorted.
func (h *Hub) Clients() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close disconnects every client and rejects further publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}
