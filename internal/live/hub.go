package live

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/okonma/pressgate/internal/logger"
	"github.com/okonma/pressgate/internal/metrics"
)

// Event is the envelope pushed to live subscribers.
// Types in use: "hello", "new_request", "metrics".
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub maintains the set of active subscribers and fans events out to them.
// Delivery is best effort, in order per subscriber; a subscriber that cannot
// keep up is pruned without affecting the others or the publisher.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	stop chan struct{}
	once sync.Once

	mu sync.RWMutex
}

// NewHub creates a hub. Call Run to start delivery.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		stop:       make(chan struct{}),
	}
}

// Run starts the hub's delivery loop. It returns when ctx is cancelled or
// Stop is called.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketConnections.Inc()
			logger.Info("Live subscriber connected", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebSocketConnections.Dec()
				logger.Info("Live subscriber disconnected", "total_clients", len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.WebSocketMessagesSent.Inc()
				default:
					// Subscriber's send buffer is full; drop the subscriber,
					// not the message for everyone else.
					close(client.send)
					delete(h.clients, client)
					metrics.WebSocketConnections.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts down the delivery loop. Idempotent.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.stop) })
}

// Publish fans an event out to every current subscriber. Marshal or delivery
// problems never surface to the caller.
func (h *Hub) Publish(eventType string, payload any) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		logger.Error("Failed to marshal live event", "type", eventType, "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Live broadcast queue full, dropping event", "type", eventType)
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
