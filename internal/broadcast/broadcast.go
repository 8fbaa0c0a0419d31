package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"songswitcher/internal/events"
)

// SSEMessage is one server-sent event frame.
type SSEMessage struct {
	Event string
	Data  string
}

// Sink receives every bus event after SSE subscribers have been served.
type Sink func(events.Event)

type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan SSEMessage]bool
	sinks   []Sink
}

// NewBroadcaster drains bus until it is closed.
func NewBroadcaster(bus *events.Bus, sinks ...Sink) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan SSEMessage]bool),
		sinks:   sinks,
	}
	go func() {
		for ev := range bus.Events {
			b.Forward(ev)
		}
	}()
	return b
}

func (b *Broadcaster) Forward(ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Broadcast] Marshal error: %v\n", err)
	} else {
		b.Broadcast(string(ev.Kind), string(data))
	}
	for _, sink := range b.sinks {
		sink(ev)
	}
}

func (b *Broadcaster) Subscribe() chan SSEMessage {
	ch := make(chan SSEMessage, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan SSEMessage) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

func (b *Broadcaster) Broadcast(event string, data string) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- SSEMessage{Event: event, Data: data}:
		default:
			// skip clients with full data channels
		}
	}
}
