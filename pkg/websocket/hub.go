// Package websocket relays room scoped events between connected clients.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event is an inbound client frame.
type Event struct {
	Type   string          `json:"type"`
	RoomID string          `json:"room_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Outbound is a frame delivered to clients.
type Outbound struct {
	Type   string      `json:"type"`
	RoomID string      `json:"room_id,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Hub tracks connected clients and the rooms they joined.
type Hub struct {
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	stopped bool

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a hub accepting clients until Run returns.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled, then disconnects every client and
// refuses new ones.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// add registers client. It reports false once the hub has stopped.
func (h *Hub) add(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.clients[client] = struct{}{}
	h.logger.Debug("client registered", zap.String("user_id", client.UserID))
	return true
}

// Join subscribes the client to roomID.
func (h *Hub) Join(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[roomID] = members
	}
	members[client] = struct{}{}
}

// JoinUsers subscribes every connected client of academyID whose user is
// listed in userIDs to roomID.
func (h *Hub) JoinUsers(roomID, academyID string, userIDs []string) {
	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if _, ok := wanted[client.UserID]; !ok || client.AcademyID != academyID {
			continue
		}
		members, ok := h.rooms[roomID]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[roomID] = members
		}
		members[client] = struct{}{}
	}
}

// Leave unsubscribes the client from roomID.
func (h *Hub) Leave(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, roomID)
}

// Broadcast delivers msg to every client subscribed to roomID. Slow clients
// whose buffers are full miss the frame.
func (h *Hub) Broadcast(roomID string, msg Outbound) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", zap.String("room_id", roomID), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[roomID] {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("dropping frame for slow client", zap.String("user_id", client.UserID), zap.String("room_id", roomID))
		}
	}
}

// RoomSize returns the number of connected subscribers of roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(client *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client]; !ok {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	for roomID := range h.rooms {
		h.leaveLocked(client, roomID)
	}
	delete(h.clients, client)
	close(client.send)
	h.logger.Debug("client unregistered", zap.String("user_id", client.UserID))
}

func (h *Hub) leaveLocked(client *Client, roomID string) {
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
}
