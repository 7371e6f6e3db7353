package hub

import (
	"sync"

	"github.com/bytedance/sonic"

	"github.com/murfkiddo/murfkiddo/internal/log"
)

// Hub maintains the set of connected feed clients and broadcasts
// encoded events to them. Slow clients whose buffers fill up are
// dropped rather than allowed to stall the feed.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	running bool
	stopped bool
}

// New creates a hub. Call Run in a goroutine before accepting clients.
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("feed client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("feed client disconnected", "clients", count)

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Buffer full, the client is too slow to keep.
					close(client.send)
					delete(h.clients, client)
					log.Warn("dropped slow feed client")
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.running = false
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients. Safe to call
// more than once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running && !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

// Publish encodes an event and queues it for broadcast. A full
// broadcast queue drops the event; the feed is best-effort.
func (h *Hub) Publish(ev Event) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
		log.Warn("feed queue full, dropping event", "kind", ev.Kind)
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning reports whether the main loop is active.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}
