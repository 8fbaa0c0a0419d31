// Package actions turns tracker action names into host-side effects.
package actions

import (
	"songswitcher/internal/events"
	"songswitcher/internal/monitoring"
)

type Counter interface {
	ActionFired(name string)
}

type Dispatcher struct {
	bus     *events.Bus
	counter Counter
}

// NewDispatcher accepts a nil bus or counter.
func NewDispatcher(bus *events.Bus, counter Counter) *Dispatcher {
	return &Dispatcher{bus: bus, counter: counter}
}

// Run is fire-and-forget and never blocks the tick.
func (d *Dispatcher) Run(name string) {
	monitoring.Infof("[Actions] %s\n", name)
	if d.counter != nil {
		d.counter.ActionFired(name)
	}
	if d.bus != nil {
		d.bus.Publish(events.Event{Kind: events.KindAction, Action: name})
	}
}
