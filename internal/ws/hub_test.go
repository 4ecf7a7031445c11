package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		role: "WAITER",
		send: make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if !hub.clients[client] {
		t.Fatal("client not registered")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.clients[client] {
		t.Fatal("client still registered after unregister")
	}

	// The send channel must be closed so WritePump exits.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	default:
		t.Fatal("send channel not closed")
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub)
	client2 := mockClient(hub)
	client3 := mockClient(hub)

	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"id":"abc","status":"ready"}`)
	hub.Broadcast(Event{Type: EventOrderUpdated, Payload: testPayload})

	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != EventOrderUpdated {
				t.Errorf("client%d: expected type %q, got %q", i+1, EventOrderUpdated, received.Type)
			}
			if string(received.Payload) != string(testPayload) {
				t.Errorf("client%d: payload mismatch: got %s", i+1, received.Payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestPublishBuildsTypedEvent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.Publish(EventStockChanged, map[string]any{
		"product_id": "p-1",
		"stock":      7,
	})

	select {
	case msg := <-client.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if received.Type != EventStockChanged {
			t.Errorf("type: got %q, want %q", received.Type, EventStockChanged)
		}
		var payload map[string]any
		if err := json.Unmarshal(received.Payload, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload["product_id"] != "p-1" {
			t.Errorf("payload product_id: got %v", payload["product_id"])
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client did not receive published event")
	}
}

func TestUnregisteredClientReceivesNothing(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(Event{Type: EventTableUpdated, Payload: json.RawMessage(`{}`)})

	select {
	case msg, ok := <-client.send:
		if ok {
			t.Fatalf("unregistered client received message: %s", msg)
		}
		// Closed channel is fine.
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowClientDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Tiny buffer so one unread event jams the client.
	slow := &Client{hub: hub, role: "WAITER", send: make(chan []byte, 1)}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(Event{Type: EventOrderUpdated, Payload: json.RawMessage(`{"n":1}`)})
	hub.Broadcast(Event{Type: EventOrderUpdated, Payload: json.RawMessage(`{"n":2}`)})
	time.Sleep(20 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.clients[slow] {
		t.Fatal("expected slow client to be dropped")
	}
}

func TestEventSerialization(t *testing.T) {
	event := Event{
		Type:    EventWarehouseUpdated,
		Payload: json.RawMessage(`{"id":"w-1","quantity":3}`),
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != event.Type {
		t.Errorf("type mismatch: got %s, want %s", decoded.Type, event.Type)
	}
	if string(decoded.Payload) != string(event.Payload) {
		t.Errorf("payload mismatch: got %s, want %s", decoded.Payload, event.Payload)
	}
}
