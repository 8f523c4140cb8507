package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-act-intake-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

const actionTerminate = "terminate"

type clusterEvent struct {
	Action          string `json:"action"`
	TargetSessionID string `json:"target_session_id"`
}

type Hub struct {
	// SessionID -> Client; one connection per session.
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance termination. Optional.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		rdb:        rdb,
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx is done, then
// closes every client still connected.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			old, replaced := h.clients[client.SessionID]
			h.clients[client.SessionID] = client
			h.mu.Unlock()
			if replaced && old != client {
				go old.Close()
			}
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client.SessionID] == client {
				delete(h.clients, client.SessionID)
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"session_id": client.SessionID})

		case <-ctx.Done():
			h.mu.Lock()
			remaining := make([]*Client, 0, len(h.clients))
			for _, client := range h.clients {
				remaining = append(remaining, client)
			}
			h.clients = make(map[string]*Client)
			h.mu.Unlock()
			for _, client := range remaining {
				go client.Close()
			}
			return
		}
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Terminate closes the session's connection on this instance and asks every
// other instance to do the same. It reports whether the session was local.
func (h *Hub) Terminate(ctx context.Context, sessionID string) bool {
	local := h.terminateLocal(sessionID)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterEvent{Action: actionTerminate, TargetSessionID: sessionID})
		if err := h.rdb.Publish(ctx, clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish termination", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
	return local
}

func (h *Hub) terminateLocal(sessionID string) bool {
	h.mu.RLock()
	client, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	h.logger.Info("Hub", "Terminating session", map[string]interface{}{"session_id": sessionID})
	go client.Close()
	return true
}

// subscribeToRedis listens for terminations published by other instances.
// Our own publications arrive here too and find nothing left to close.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleClusterEvent(msg.Payload)
		}
	}
}

func (h *Hub) handleClusterEvent(payload string) {
	var evt clusterEvent
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	if evt.Action != actionTerminate || evt.TargetSessionID == "" {
		return
	}
	h.terminateLocal(evt.TargetSessionID)
}
