// Package board serves the read-only operator board: the current display
// model over HTTP plus a websocket feed that pushes every refresh. The
// board never writes back to the engine.
package board

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pythia-trading/pythia-console/internal/metrics"
)

const broadcastBuffer = 64

// Hub fans refreshed display models out to connected websocket clients.
// Run drives it; a client that cannot keep up with the feed is evicted
// rather than allowed to stall the broadcast.
type Hub struct {
	metrics *metrics.Registry

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*client]bool
}

// NewHub builds a hub. Run must be started exactly once.
func NewHub(reg *metrics.Registry) *Hub {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Hub{
		metrics:    reg,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		clients:    make(map[*client]bool),
	}
}

// Run processes registrations and broadcasts until ctx is canceled, then
// closes every connected client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.BoardClients.Set(float64(count))
			log.Debug().Int("clients", count).Msg("Board client connected")

		case c := <-h.unregister:
			h.drop(c)

		case message := <-h.broadcast:
			// Copy the client set under a short read lock so sends never
			// hold it.
			h.mu.RLock()
			targets := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.RUnlock()

			var slow []*client
			for _, c := range targets {
				select {
				case c.send <- message:
				default:
					slow = append(slow, c)
				}
			}
			for _, c := range slow {
				h.drop(c)
			}
			if len(slow) > 0 {
				log.Warn().Int("evicted", len(slow)).Msg("Evicted slow board clients")
			}
		}
	}
}

// Broadcast queues a payload for every connected client. A full queue drops
// the payload; the next refresh supersedes it anyway.
func (h *Hub) Broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal board broadcast")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Warn().Msg("Board broadcast queue full, dropping update")
	}
}

// ClientCount reports currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	h.metrics.BoardClients.Set(float64(count))
	log.Debug().Int("clients", count).Msg("Board client disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.metrics.BoardClients.Set(0)
}
