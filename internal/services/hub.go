package services

import (
	"encoding/json"
	"sync"

	"photoedit/types"
)

// Hub fans settle events out to the one websocket each session may hold.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*WSClient
}

func NewHub() *Hub {
	return &Hub{
		clients: map[string]*WSClient{},
	}
}

// Add replaces any socket already registered for the same session.
func (h *Hub) Add(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[c.id]; ok {
		old.close()
	}

	h.clients[c.id] = c
}

// Remove only drops c if it is still the registered socket for its session.
func (h *Hub) Remove(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		c.close()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := h.clients
	h.clients = map[string]*WSClient{}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// SendTo drops the event when the session has no socket and evicts sockets
// whose buffer is full.
func (h *Hub) SendTo(sessionID string, event types.EditEvent) bool {
	h.mu.RLock()
	c := h.clients[sessionID]
	h.mu.RUnlock()

	if c == nil {
		return false
	}

	b, _ := json.Marshal(event)
	if c.enqueue(b) {
		return true
	}
	h.Remove(c)
	return false
}
