package streaming

import (
	"sync"
	"testing"
	"time"
)

func addTestClient(h *Hub, buffer int) *Client {
	c := &Client{
		hub:  h,
		send: make(chan []byte, buffer),
		subscriptions: map[EventType]bool{
			EventTypeStats: true,
		},
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func TestBroadcastEvictsSlowClient(t *testing.T) {
	h := NewHub()
	slow := addTestClient(h, 0)
	fast := addTestClient(h, 4)

	h.broadcastEvent(Event{Type: EventTypeStats, Timestamp: time.Now()})

	if got := h.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() = %d, want 1", got)
	}
	if _, open := <-slow.send; open {
		t.Fatal("slow client send channel not closed after eviction")
	}
	select {
	case <-fast.send:
	default:
		t.Fatal("fast client did not receive the event")
	}
}

func TestBroadcastConcurrentWithClientCount(t *testing.T) {
	h := NewHub()
	for i := 0; i < 8; i++ {
		addTestClient(h, 0)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h.ClientCount()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			h.broadcastEvent(Event{Type: EventTypeStats, Timestamp: time.Now()})
		}
	}()
	wg.Wait()

	if got := h.ClientCount(); got != 0 {
		t.Fatalf("ClientCount() = %d after evicting all stalled clients, want 0", got)
	}
}

func TestBroadcastSkipsUnsubscribedClient(t *testing.T) {
	h := NewHub()
	c := addTestClient(h, 0)

	h.broadcastEvent(Event{Type: EventTypePicks, Timestamp: time.Now()})

	if got := h.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() = %d, want 1 (unsubscribed client must not be evicted)", got)
	}
	select {
	case <-c.send:
		t.Fatal("client received an event it is not subscribed to")
	default:
	}
}
