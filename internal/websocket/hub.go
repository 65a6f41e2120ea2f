package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans canvas events out to the workspace clients attached to each
// session. Multiple clients per session are allowed (viewer plus canvas).
type Hub struct {
	// SessionID -> attached clients
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Workspace attached", map[string]interface{}{"session_id": client.SessionID})
			if client.OnAttach != nil {
				client.OnAttach(client.SessionID)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
					h.logger.Info("Hub", "Session fully detached", map[string]interface{}{"session_id": client.SessionID})
				}
			}
			h.mu.Unlock()
			if client.OnDetach != nil {
				client.OnDetach(client.SessionID)
			}
		}
	}
}

// HasClients reports whether any workspace is attached to the session,
// locally on this instance.
func (h *Hub) HasClients(sessionId uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionId]) > 0
}

// Deliver implements the canvas transport. Handoff to every attached
// client's send buffer counts as confirmation; a session with no attached
// workspace fails delivery so the coordinator keeps the event queued.
func (h *Hub) Deliver(ctx context.Context, sessionId uuid.UUID, event *entity.CanvasEvent) error {
	data, err := json.Marshal(map[string]interface{}{
		"type": "canvas_event",
		"data": map[string]interface{}{
			"id":         event.Id,
			"session_id": event.SessionId,
			"seq":        event.Seq,
			"action":     event.Action,
			"payload":    event.Payload,
		},
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients, found := h.clients[sessionId]
	h.mu.RUnlock()

	if !found || len(clients) == 0 {
		// Cross-instance: another node may hold the workspace.
		if h.rdb != nil {
			return h.publishToRedis(ctx, sessionId, data)
		}
		return fmt.Errorf("no workspace attached to session %s", sessionId)
	}

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			// Run closes the send channel during unregister.
			h.logger.Warn("Hub", "Client send buffer full, detaching", map[string]interface{}{"session_id": sessionId})
			h.unregister <- client
			return fmt.Errorf("workspace send buffer overflow for session %s", sessionId)
		}
	}
	return nil
}

func (h *Hub) publishToRedis(ctx context.Context, sessionId uuid.UUID, data []byte) error {
	payload, err := json.Marshal(map[string]interface{}{
		"target_session_id": sessionId.String(),
		"message":           json.RawMessage(data),
	})
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, "canvas_events", payload).Err()
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the shared channel and forwards to the
	// sessions it holds locally.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "canvas_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetSessionID string          `json:"target_session_id"`
			Message         json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		sid, err := uuid.Parse(payload.TargetSessionID)
		if err != nil {
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[sid]
		h.mu.RUnlock()

		if ok {
			for _, client := range clients {
				select {
				case client.Send <- payload.Message:
				default:
					h.unregister <- client
				}
			}
		}
	}
}
