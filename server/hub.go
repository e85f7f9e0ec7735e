package server

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub keeps the websocket clients of the portfolio feed.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}

	// a connection supports one concurrent writer.
	writeMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastJSON sends v to every client. Clients that cannot be written to are dropped.
func (h *Hub) BroadcastJSON(v any) {
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.RUnlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, conn := range clients {
		if err := conn.WriteJSON(v); err != nil {
			h.RemoveClient(conn)
		}
	}
}

// SendJSON sends v to a single client, serialized with broadcasts.
func (h *Hub) SendJSON(conn *websocket.Conn, v any) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return conn.WriteJSON(v)
}
