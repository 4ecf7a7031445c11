package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Event is a typed WebSocket message broadcast to every connected client.
// Clients switch on Type and patch only the affected slice of their state
// instead of refetching everything.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event types.
const (
	EventOrderUpdated     = "order.updated"
	EventStockChanged     = "stock.changed"
	EventTableUpdated     = "table.updated"
	EventWarehouseUpdated = "warehouse.updated"
	EventCatalogUpdated   = "catalog.updated"
)

// NewEvent marshals payload into an Event of the given type. A payload
// that cannot be marshalled is a programming error; the event is dropped
// and logged rather than sent half-formed.
func NewEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw}, nil
}

// Hub maintains the set of active clients and broadcasts events to them.
// A single restaurant means a single room: every client sees every event.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				log.Error().Err(err).Str("type", event.Type).Msg("marshal ws event")
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}

// Publish marshals payload and broadcasts it under eventType. Marshal
// failures are logged and swallowed so a bad payload never fails the
// HTTP request that triggered it.
func (h *Hub) Publish(eventType string, payload any) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("build ws event")
		return
	}
	h.Broadcast(event)
}
