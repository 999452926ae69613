package ws

import (
	"sync"

	"go.uber.org/zap"
)

// RoomBroadcast represents a message to push to every client in a room
type RoomBroadcast struct {
	RoomID  string
	Message *Message
}

// Hub maintains the set of active clients, grouped by the room their
// session belongs to, and fans room state out to them. Cross-node delivery
// is handled lower down by the repository's change notifications; the hub
// only ever talks to its own connections.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients by room: roomID -> clients
	rooms map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast messages to room
	broadcast chan *RoomBroadcast

	mu sync.RWMutex

	logger *zap.Logger
}

// NewHub creates a new Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *RoomBroadcast, 256),
		logger:     logger,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToRoom(msg)
		}
	}
}

// Broadcast queues a message for every client in a room.
func (h *Hub) Broadcast(roomID string, msg *Message) {
	select {
	case h.broadcast <- &RoomBroadcast{RoomID: roomID, Message: msg}:
	default:
		h.logger.Warn("Hub broadcast buffer full, dropping message",
			zap.String("room_id", roomID),
		)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.rooms[client.roomID] == nil {
		h.rooms[client.roomID] = make(map[*Client]bool)
	}
	h.rooms[client.roomID][client] = true

	h.logger.Info("Client connected",
		zap.String("user_id", client.userID),
		zap.String("room_id", client.roomID),
		zap.Int("total_clients", len(h.clients)),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()

	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client)

	if roomClients, ok := h.rooms[client.roomID]; ok {
		delete(roomClients, client)
		if len(roomClients) == 0 {
			delete(h.rooms, client.roomID)
		}
	}

	h.mu.Unlock()

	client.Close()

	h.logger.Info("Client disconnected",
		zap.String("user_id", client.userID),
		zap.String("room_id", client.roomID),
	)
}

func (h *Hub) broadcastToRoom(bm *RoomBroadcast) {
	h.mu.RLock()
	clients := h.rooms[bm.RoomID]
	h.mu.RUnlock()

	for client := range clients {
		client.SendMessage(bm.Message)
	}
}

// GetRoomClients returns the number of clients connected for a room
func (h *Hub) GetRoomClients(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// GetStats returns hub statistics
func (h *Hub) GetStats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]int{
		"total_clients": len(h.clients),
		"active_rooms":  len(h.rooms),
	}
}
