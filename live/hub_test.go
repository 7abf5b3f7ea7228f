package live

import (
	"encoding/json"
	"testing"
	"time"
)

func registerAndWait(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	hub.Register <- client

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		_, ok := hub.rooms[client.Room][client]
		hub.mu.RUnlock()
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("client was not registered in time")
}

func TestBroadcastToRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	inRoom := &Client{Hub: hub, Send: make(chan []byte, 4), Room: "17"}
	otherRoom := &Client{Hub: hub, Send: make(chan []byte, 4), Room: "18"}
	registerAndWait(t, hub, inRoom)
	registerAndWait(t, hub, otherRoom)

	hub.BroadcastToRoom("17", Event{Type: EventRosterUpdated, Payload: map[string]int{"tournament_id": 17}})

	select {
	case raw := <-inRoom.Send:
		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if event.Type != EventRosterUpdated || event.RoomID != "17" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("client in room received nothing")
	}

	select {
	case raw := <-otherRoom.Send:
		t.Fatalf("client in another room received %s", raw)
	default:
	}
}

func TestBroadcastSkipsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "5"}
	registerAndWait(t, hub, slow)

	// Первый буфер занят, второе событие должно быть молча отброшено.
	hub.BroadcastToRoom("5", Event{Type: EventResultRecorded})
	hub.BroadcastToRoom("5", Event{Type: EventResultRecorded})

	if got := len(slow.Send); got != 1 {
		t.Fatalf("buffered messages = %d, want 1", got)
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "9"}
	registerAndWait(t, hub, client)

	hub.Unregister <- client

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		select {
		case _, ok := <-client.Send:
			if ok {
				t.Fatal("unexpected message on send channel")
			}
			// Канал закрыт, комната должна опустеть.
			hub.mu.RLock()
			_, exists := hub.rooms["9"]
			hub.mu.RUnlock()
			if exists {
				t.Fatal("empty room was not removed")
			}
			return
		default:
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatal("send channel was not closed in time")
}
