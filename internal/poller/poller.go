// Package poller sequences one tick: scene lookup, relevance gate,
// telemetry fetch and decode, tracker update, and fault containment.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"songswitcher/internal/events"
	"songswitcher/internal/gamestate"
	"songswitcher/internal/metrics"
	"songswitcher/internal/monitoring"
	"songswitcher/internal/telemetry"
)

type Scenes interface {
	Connect(ctx context.Context)
	CurrentScene(ctx context.Context) string
	Reset()
}

type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type Tracker interface {
	IsRelevantScene(scene string) bool
	Update(ctx context.Context, r *telemetry.Readout, scene string) error
	Reset()
}

type Observer interface {
	ObserveTick(result string, d time.Duration)
}

type Poller struct {
	mu       sync.Mutex
	scenes   Scenes
	source   Source
	tracker  Tracker
	interval time.Duration
	observer Observer
	bus      *events.Bus

	lastScene string
}

func New(scenes Scenes, source Source, tracker Tracker, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{scenes: scenes, source: source, tracker: tracker, interval: interval}
}

func (p *Poller) WithObserver(o Observer) *Poller {
	p.observer = o
	return p
}

// WithBus publishes a scene event whenever the live scene changes.
func (p *Poller) WithBus(bus *events.Bus) *Poller {
	p.bus = bus
	return p
}

// Run ticks every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	monitoring.Infof("[Poller] Ticking every %v\n", p.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Faults are contained per tick and already logged.
			_ = p.Tick(ctx)
		}
	}
}

// Tick processes one cycle. Concurrent callers are serialized.
func (p *Poller) Tick(ctx context.Context) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	result := metrics.TickOK
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", gamestate.ErrInconsistentState, r)
			result = p.handle(err)
		}
		if p.observer != nil {
			p.observer.ObserveTick(result, time.Since(start))
		}
	}()

	p.scenes.Connect(ctx)
	scene := p.scenes.CurrentScene(ctx)
	p.noteScene(scene)

	if !p.tracker.IsRelevantScene(scene) {
		monitoring.Debugf("[Poller] Scene %q not relevant, skipping\n", scene)
		result = metrics.TickSkipped
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.interval)
	data, err := p.source.Fetch(fetchCtx)
	cancel()
	if err != nil {
		result = p.handle(err)
		return err
	}
	readout, err := telemetry.Decode(data)
	if err != nil {
		result = p.handle(err)
		return err
	}
	if err := p.tracker.Update(ctx, readout, scene); err != nil {
		result = p.handle(err)
		return err
	}
	return nil
}

// handle logs err, reinitializes components when needed, and returns the
// tick result label.
func (p *Poller) handle(err error) string {
	switch {
	case errors.Is(err, telemetry.ErrTransport):
		monitoring.Warnf("[Poller] Telemetry unreachable: %v\n", err)
		return metrics.TickTransport
	case errors.Is(err, telemetry.ErrDecode):
		monitoring.Warnf("[Poller] Telemetry undecodable: %v\n", err)
		return metrics.TickDecode
	case errors.Is(err, gamestate.ErrMissingTelemetry):
		monitoring.Warnf("[Poller] %v; check that the sniffer is running and the host/port are correct\n", err)
		return metrics.TickMissing
	default:
		monitoring.Errorf("[Poller] Reinitializing after fault: %v\n", err)
		p.tracker.Reset()
		p.scenes.Reset()
		p.lastScene = ""
		return metrics.TickReinit
	}
}

func (p *Poller) noteScene(scene string) {
	if scene == p.lastScene {
		return
	}
	p.lastScene = scene
	if p.bus != nil && scene != "" {
		p.bus.Publish(events.Event{Kind: events.KindScene, Scene: scene})
	}
}
