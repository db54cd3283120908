package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/graphedit/editor"
	"github.com/TFMV/graphedit/input"
	"github.com/TFMV/graphedit/render"
)

const (
	sendBuffer     = 256
	maxMessageSize = 4096
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

// inputMessage is a pointer or key event sent by a WebSocket client. Coordinates are
// in layout units unless Width and Height are set, in which case X and Y are pixels of
// a view of that size.
type inputMessage struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Button string  `json:"button,omitempty"`
}

func (m inputMessage) position() r2.Vec {
	if m.Width > 0 && m.Height > 0 {
		return render.Unproject(m.X, m.Y, m.Width, m.Height)
	}
	return r2.Vec{X: m.X, Y: m.Y}
}

func (m inputMessage) event() (input.Event, error) {
	pos := m.position()
	button := input.ButtonPrimary
	switch m.Button {
	case "", "primary", "left":
	case "secondary", "right":
		button = input.ButtonSecondary
	default:
		return nil, fmt.Errorf("unknown button %q", m.Button)
	}

	switch m.Type {
	case "pointer_down":
		return input.PointerDown{Pos: pos, Button: button}, nil
	case "pointer_move":
		return input.PointerMove{Pos: pos}, nil
	case "pointer_up":
		return input.PointerUp{Pos: pos, Button: button}, nil
	case "key_delete":
		return input.KeyDelete{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", m.Type)
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session notifications out to WebSocket clients. Broadcast never blocks: a
// client whose buffer is full is disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Broadcast sends n to every connected client.
func (h *Hub) Broadcast(n editor.Notification) {
	msg, err := json.Marshal(n)
	if err != nil {
		slog.Error("failed to encode notification", "type", string(n.Type), "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			wsDropped.Inc()
			slog.Warn("dropping slow websocket client")
			h.removeLocked(c)
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// sendTo queues v for a single client. It reports false if the client is gone.
func (h *Hub) sendTo(c *client, v any) bool {
	msg, err := json.Marshal(v)
	if err != nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		wsDropped.Inc()
		h.removeLocked(c)
		return false
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	wsClients.Inc()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	wsClients.Dec()
}

// writePump owns all writes to the connection. It exits when send is closed.
func (c *client) writePump() {
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
				slog.Debug("websocket write failed", "error", err)
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
