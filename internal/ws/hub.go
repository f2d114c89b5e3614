package ws

import (
	"context"
	"log/slog"
	"sync"

	"skill-journal/internal/metrics"
)

// Hub tracks open connections. Register and Unregister hand off to Run, so
// once Run returns every client is closed and later registrations are refused.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *slog.Logger
	metrics    metrics.Recorder
}

func NewHub(logger *slog.Logger, rec metrics.Recorder) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "ws.hub")),
		metrics:    rec,
	}
}

func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mutex.Unlock()
			h.metrics.WSConnected()
			h.logger.Info("WS connected", slog.Int("total_clients", total))

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			_, ok := h.clients[client]
			delete(h.clients, client)
			total := len(h.clients)
			h.mutex.Unlock()
			if ok {
				h.metrics.WSDisconnected()
				h.logger.Info("WS disconnected", slog.Int("total_clients", total))
			}
			client.Close()
		}
	}
}

func (h *Hub) shutdown() {
	h.mutex.Lock()
	close(h.done)
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mutex.Unlock()

	for _, c := range clients {
		h.metrics.WSDisconnected()
		c.Close()
	}
	h.logger.Info("WS hub stopped", slog.Int("closed_clients", len(clients)))
}

// Register reports false, and closes the client, once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	if h == nil || client == nil {
		return false
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		client.Close()
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
