package websocket

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubBroadcastReachesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 8)}
	hub.register <- client

	deadline := time.After(time.Second)
	for hub.GetClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client was not registered in time")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	hub.Broadcast(map[string]string{"type": "attendance", "event": "checkin"})

	select {
	case raw := <-client.send:
		var got map[string]string
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("broadcast payload is not JSON: %v", err)
		}
		if got["event"] != "checkin" {
			t.Fatalf("unexpected payload: %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast did not reach the client")
	}

	hub.unregister <- client
	deadline = time.After(time.Second)
	for hub.GetClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("client was not unregistered in time")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Must not block or panic with nobody listening.
	for i := 0; i < 10; i++ {
		hub.Broadcast(map[string]int{"seq": i})
	}
	if hub.GetClientCount() != 0 {
		t.Fatalf("expected no clients, got %d", hub.GetClientCount())
	}
}
