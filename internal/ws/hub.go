package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/services"
)

const (
	sendBuffer = 32
	writeWait  = 10 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans roster events out to connected admin dashboards. A client
// whose buffer is full is dropped instead of stalling the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*client
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		log:     log,
	}
}

var _ services.EventPublisher = (*Hub)(nil)

// Serve registers conn and pumps events to it until the peer goes away.
func (h *Hub) Serve(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[conn] = c
	total := len(h.clients)
	h.mu.Unlock()
	h.log.Info("ws client connected", "total", total)

	go h.writePump(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(conn)
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("ws write failed", "error", err)
			h.remove(c.conn)
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.log.Info("ws client disconnected")
	}
}

func (h *Hub) Publish(event services.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws marshal failed", "type", event.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("ws client too slow, dropping")
			delete(h.clients, conn)
			close(c.send)
			conn.Close()
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
