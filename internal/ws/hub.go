// Package ws pushes table and cart changes to connected POS terminals over
// websockets.
package ws

import (
	"context"
	"sync"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types.
const (
	TypeTableUpdated = "table.updated"
	TypeCartUpdated  = "cart.updated"
)

// Event is a message broadcast to every client. Payload must be valid JSON.
type Event struct {
	Type    string
	Payload []byte
}

// Encode renders e as {"type":...,"payload":...}.
func (e Event) Encode() []byte {
	var enc jx.Encoder
	enc.ObjStart()
	enc.FieldStart("type")
	enc.Str(e.Type)
	enc.FieldStart("payload")
	if len(e.Payload) == 0 {
		enc.Null()
	} else {
		enc.Raw(e.Payload)
	}
	enc.ObjEnd()
	return enc.Bytes()
}

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates a Hub. Call Run to start delivering events.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run delivers events until ctx is done, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) error {
	lg := zctx.From(ctx)
	defer h.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			lg.Debug("Client connected", zap.Stringer("client", c.id))
		case c := <-h.unregister:
			if h.remove(c) {
				lg.Debug("Client disconnected", zap.Stringer("client", c.id))
			}
		case ev := <-h.broadcast:
			msg := ev.Encode()
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					lg.Info("Dropping slow client", zap.Stringer("client", c.id))
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues ev for delivery. It never blocks once the hub stopped.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	close(c.send)
	return true
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
	})
}

func newClient(h *Hub, sendBuffer int) *Client {
	return &Client{hub: h, id: uuid.New(), send: make(chan []byte, sendBuffer)}
}
