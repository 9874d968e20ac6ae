package ws

import (
	"context"
	"testing"
	"time"
)

func newTestClient() *Client {
	return &Client{send: make(chan Event, sendBuffer)}
}

func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev := <-c.send:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestHubRoutesEventsToRoomSubscribers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a := newTestClient()
	b := newTestClient()
	other := newTestClient()
	hub.register <- subscription{roomID: 1, client: a}
	hub.register <- subscription{roomID: 1, client: b}
	hub.register <- subscription{roomID: 2, client: other}

	hub.Publish(Event{Type: EventMessage, RoomID: 1, Content: "hi"})

	for _, c := range []*Client{a, b} {
		ev := recvEvent(t, c)
		if ev.Content != "hi" || ev.RoomID != 1 {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
	select {
	case ev := <-other.send:
		t.Fatalf("room 2 client received event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newTestClient()
	hub.register <- subscription{roomID: 1, client: c}
	hub.unregister <- subscription{roomID: 1, client: c}

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel was not closed")
	}

	// Publishing to the now-empty room must not panic or block.
	hub.Publish(Event{Type: EventMessage, RoomID: 1})
}

func TestHubEvictsBackPressuredClient(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newTestClient()
	watcher := newTestClient()
	hub.register <- subscription{roomID: 9, client: c}
	hub.register <- subscription{roomID: 10, client: watcher}

	// One more than the buffer: nothing drains c.send, so the overflow
	// event finds it full and evicts the client.
	for i := 0; i <= sendBuffer; i++ {
		hub.Publish(Event{Type: EventMessage, RoomID: 9, MessageID: uint(i + 1)})
	}

	// The hub handles publishes in order; once the marker reaches the
	// watcher the overflow delivery above has already run.
	hub.Publish(Event{Type: EventMessage, RoomID: 10})
	recvEvent(t, watcher)

	// The buffered events stay readable; the channel is closed behind them.
	for i := 0; i < sendBuffer; i++ {
		recvEvent(t, c)
	}
	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatal("expected closed send channel after eviction, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("back-pressured client was not evicted")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	c := newTestClient()
	hub.register <- subscription{roomID: 1, client: c}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("client channel not closed on shutdown")
		}
	}
}
