package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the envelope for everything pushed to clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks the live WebSocket connections per Discord channel. It only
// moves bytes; who should receive what is the coordinator's decision.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*websocket.Conn]string // conn -> user id
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*websocket.Conn]string)}
}

// AddConnection registers a connection for a channel under a user id.
func (h *Hub) AddConnection(channelID string, conn *websocket.Conn, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[channelID] == nil {
		h.channels[channelID] = make(map[*websocket.Conn]string)
	}
	h.channels[channelID][conn] = userID
	log.Printf("ws: %s connected to channel %s (total: %d)", userID, channelID, len(h.channels[channelID]))
}

// RemoveConnection drops a connection and closes it.
func (h *Hub) RemoveConnection(channelID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.channels[channelID]; ok {
		userID := conns[conn]
		delete(conns, conn)
		conn.Close()
		if len(conns) == 0 {
			delete(h.channels, channelID)
		}
		log.Printf("ws: %s disconnected from channel %s", userID, channelID)
	}
}

// HasUserConnection reports whether the user still has at least one
// open connection in the channel. A user on two devices is not gone
// until the last one drops.
func (h *Hub) HasUserConnection(channelID, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range h.channels[channelID] {
		if id == userID {
			return true
		}
	}
	return false
}

// Broadcast sends an event to every connection in the channel, pruning
// connections that fail to take the write.
func (h *Hub) Broadcast(channelID string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.channels[channelID]
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			delete(conns, conn)
		}
	}
}

// SendToUser delivers an event only to the given user's connections in
// the channel. Reports whether at least one write succeeded.
func (h *Hub) SendToUser(channelID, userID string, event Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.channels[channelID]
	if !ok {
		return false
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return false
	}

	delivered := false
	for conn, id := range conns {
		if id != userID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			delete(conns, conn)
			continue
		}
		delivered = true
	}
	return delivered
}
