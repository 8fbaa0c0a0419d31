package events

import (
	"log"
	"time"
)

type Kind string

const (
	KindAction    Kind = "action"
	KindVariables Kind = "variables"
	KindScene     Kind = "scene"
)

// Event is one host-side occurrence fanned out to overlays.
type Event struct {
	Kind      Kind           `json:"kind"`
	Action    string         `json:"action,omitempty"`
	Scene     string         `json:"scene,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
	At        time.Time      `json:"at"`
}

type Bus struct {
	Events chan Event
}

func NewBus() *Bus {
	return &Bus{
		Events: make(chan Event, 64),
	}
}

// Publish never blocks the caller; a full bus drops the event.
func (b *Bus) Publish(ev Event) bool {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case b.Events <- ev:
		return true
	default:
		log.Printf("[Events] Bus full, dropping %s event\n", ev.Kind)
		return false
	}
}
