// Package api exposes the control plane over a single websocket endpoint:
// every connected client receives the same broadcast Snapshot stream and
// submits Operations on its own connection. No per-client REST surface is
// kept, since the original control plane has none either.
package api

import (
	"encoding/json"
	"sync"

	"gimbal-control/internal/logger"
)

// envelope tags every outbound broadcast with a kind so clients can dispatch
// without guessing from shape alone.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Hub fans a single broadcast stream out to every connected client and
// tracks client (de)registration, the same register/unregister/broadcast
// channel shape the teacher's cmd/srtla-manager wiring drove its own Hub
// through.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
	}
}

// Run owns the clients map; call it in its own goroutine for the life of
// the process.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					logger.Warn("hub: client send buffer full, dropping connection")
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast wraps payload in a typed envelope and queues it for every
// connected client. A marshal failure is a programming error, so it's
// logged rather than propagated.
func (h *Hub) Broadcast(kind string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("hub: marshal %s payload: %v", kind, err)
		return
	}
	msg, err := json.Marshal(envelope{Type: kind, Data: data})
	if err != nil {
		logger.Error("hub: marshal envelope: %v", err)
		return
	}
	h.broadcast <- msg
}
