package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"task-rotation-api/internal/events"
)

// Client represents a single websocket client connection.
// The actual network conn is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Message is the payload pushed to clients when a task they hold, or held
// until this change, is modified.
type Message struct {
	Type           events.EventType `json:"type"`
	TaskID         string           `json:"taskId"`
	UserID         string           `json:"userId,omitempty"`
	PreviousUserID string           `json:"previousUserId,omitempty"`
	Version        int64            `json:"version"`
}

// Hub maintains active user connections and broadcasts events to them.
type Hub struct {
	logger          *zap.Logger
	mu              sync.RWMutex
	userIDToClients map[string]map[Client]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:          logger.Named("hub"),
		userIDToClients: make(map[string]map[Client]struct{}),
	}
}

// Register adds a client under a user ID.
func (h *Hub) Register(userID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.userIDToClients[userID]; !ok {
		h.userIDToClients[userID] = make(map[Client]struct{})
	}
	h.userIDToClients[userID][client] = struct{}{}
}

// Unregister removes a client; if user has no more clients, cleans up map.
func (h *Hub) Unregister(userID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.userIDToClients[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userIDToClients, userID)
		}
	}
}

// ClientCount returns the number of connections registered for userID.
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userIDToClients[userID])
}

// Broadcast sends a message to all clients of a user. Writes happen outside
// the hub lock.
func (h *Hub) Broadcast(userID string, message []byte) {
	h.mu.RLock()
	clients := make([]Client, 0, len(h.userIDToClients[userID]))
	for c := range h.userIDToClients[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if ok := c.Send(message); !ok {
			// the handler's read loop notices the broken conn and unregisters it
			h.logger.Debug("websocket send failed", zap.String("user_id", userID))
		}
	}
}

// HandleEvent pushes task events to the users they concern.
func (h *Hub) HandleEvent(_ context.Context, e events.Event) error {
	if e.TaskID == "" {
		return nil
	}
	payload, err := json.Marshal(Message{
		Type:           e.Type,
		TaskID:         e.TaskID,
		UserID:         e.UserID,
		PreviousUserID: e.PreviousUserID,
		Version:        e.Timestamp.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode realtime message: %w", err)
	}
	for _, userID := range e.Recipients() {
		h.Broadcast(userID, payload)
	}
	return nil
}

// Subscribe wires the hub to every event published on d.
func (h *Hub) Subscribe(d events.Dispatcher) {
	d.SubscribeAll(h.HandleEvent)
}
