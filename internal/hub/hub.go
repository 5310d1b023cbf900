// Package hub manages streaming conversion sessions over WebSocket. The Hub
// goroutine owns the session table; clients are added and removed through
// channels and each client runs its own read and write pumps.
package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pinch-protocol/ss58/internal/convert"
)

// Hub maintains the set of active sessions.
type Hub struct {
	// clients maps session IDs to active clients.
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	// done is closed once Run has returned.
	done chan struct{}

	// svc serves every request received by a session.
	svc *convert.Service

	// limits caps the request rate of each session.
	limits Limits

	// mu protects external reads of the session table (e.g., health checks).
	mu sync.RWMutex
}

// NewHub creates a Hub whose sessions are served by svc.
func NewHub(svc *convert.Service, limits Limits) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		svc:        svc,
		limits:     limits.withDefaults(),
	}
}

// Run processes register and unregister events until ctx is cancelled. Run
// should be called in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			n := len(h.clients)
			h.mu.Unlock()
			slog.Info("session opened",
				"session", client.id,
				"sessions", n,
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.cancel()
			}
			n := len(h.clients)
			h.mu.Unlock()
			slog.Info("session closed",
				"session", client.id,
				"sessions", n,
			)

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				client.cancel()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			slog.Info("hub stopped")
			return
		}
	}
}

// ClientCount returns the number of open sessions. It is safe for
// concurrent use.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LookupClient returns the session with the given ID.
func (h *Hub) LookupClient(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

// Register queues a client for registration with the hub. A client
// registered after the hub stopped is cancelled immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.cancel()
	}
}

// Unregister queues a client for removal from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
