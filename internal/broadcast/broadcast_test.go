package broadcast

import (
	"encoding/json"
	"testing"
	"time"

	"songswitcher/internal/events"
)

func TestNewBroadcaster(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	if b == nil {
		t.Fatal("NewBroadcaster() returned nil")
	}
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)

	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() returned nil")
	}

	b.Mu.Lock()
	if len(b.Clients) != 1 {
		t.Errorf("clients count = %d, want 1", len(b.Clients))
	}
	b.Mu.Unlock()

	b.Unsubscribe(ch)

	b.Mu.Lock()
	if len(b.Clients) != 0 {
		t.Errorf("clients count after unsubscribe = %d, want 0", len(b.Clients))
	}
	b.Mu.Unlock()
}

func TestBroadcaster_Broadcast(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Broadcast("test-event", "hello")

	for i, ch := range []chan SSEMessage{ch1, ch2} {
		select {
		case msg := <-ch:
			if msg.Event != "test-event" || msg.Data != "hello" {
				t.Errorf("ch%d got %+v, want event=test-event, data=hello", i+1, msg)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("ch%d timed out", i+1)
		}
	}

	b.Unsubscribe(ch1)
	b.Unsubscribe(ch2)
}

func TestBroadcaster_SkipsFullChannels(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)

	ch := b.Subscribe()

	// Fill the channel buffer (capacity 10)
	for i := 0; i < 10; i++ {
		b.Broadcast("fill", "data")
	}

	done := make(chan bool)
	go func() {
		b.Broadcast("overflow", "data")
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Broadcast blocked on full channel")
	}

	b.Unsubscribe(ch)
}

func TestBroadcaster_BusForwarding(t *testing.T) {
	bus := events.NewBus()
	sunk := make(chan events.Event, 1)
	b := NewBroadcaster(bus, func(ev events.Event) { sunk <- ev })

	ch := b.Subscribe()

	bus.Publish(events.Event{Kind: events.KindAction, Action: "enterPause"})

	select {
	case msg := <-ch:
		if msg.Event != "action" {
			t.Errorf("event = %q, want %q", msg.Event, "action")
		}
		var ev events.Event
		if err := json.Unmarshal([]byte(msg.Data), &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Action != "enterPause" {
			t.Errorf("action = %q, want %q", ev.Action, "enterPause")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for forwarded event")
	}

	select {
	case ev := <-sunk:
		if ev.Action != "enterPause" {
			t.Errorf("sink action = %q, want %q", ev.Action, "enterPause")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("sink never received the event")
	}

	b.Unsubscribe(ch)
}
