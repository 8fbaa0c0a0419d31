// Package variables is the host-variable store the tracker writes into.
package variables

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"

	"songswitcher/internal/events"
	"songswitcher/internal/monitoring"
)

const (
	pushDelay    = 100 * time.Millisecond
	writeTimeout = 2 * time.Second
)

type Persister interface {
	UpsertVariable(ctx context.Context, name, value string) error
}

type Loader interface {
	Variables(ctx context.Context) (map[string]string, error)
}

type Store struct {
	mu        sync.RWMutex
	values    map[string]any
	persisted map[string]bool
	dirty     map[string]bool

	persister Persister
	bus       *events.Bus
	debounced func(f func())
}

// NewStore marks the given names as persisted.
func NewStore(persisted ...string) *Store {
	s := &Store{
		values:    make(map[string]any),
		persisted: make(map[string]bool, len(persisted)),
		dirty:     make(map[string]bool),
	}
	for _, name := range persisted {
		s.persisted[name] = true
	}
	return s
}

func (s *Store) WithPersister(p Persister) *Store {
	s.persister = p
	return s
}

// WithBus pushes coalesced change events to bus.
func (s *Store) WithBus(bus *events.Bus) *Store {
	s.bus = bus
	s.debounced = debounce.New(pushDelay)
	return s
}

// Load seeds persisted names from the database.
func (s *Store) Load(ctx context.Context, l Loader) error {
	vals, err := l.Variables(ctx)
	if err != nil {
		return fmt.Errorf("loading variables: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, v := range vals {
		if s.persisted[name] {
			s.values[name] = v
		}
	}
	monitoring.Debugf("[Variables] loaded %d persisted values\n", len(vals))
	return nil
}

// Set stores value and writes persisted names through to the database.
// Unchanged values are not rewritten. A persisted value is only kept once
// the database accepted it, so a failed write is retried by the next Set.
func (s *Store) Set(name string, value any) error {
	s.mu.RLock()
	old, ok := s.values[name]
	s.mu.RUnlock()
	if ok && fmt.Sprint(old) == fmt.Sprint(value) {
		return nil
	}

	if s.persister != nil && s.persisted[name] {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := s.persister.UpsertVariable(ctx, name, fmt.Sprint(value)); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.values[name] = value
	s.dirty[name] = true
	s.mu.Unlock()

	if s.debounced != nil {
		s.debounced(s.push)
	}
	return nil
}

func (s *Store) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *Store) push() {
	s.mu.Lock()
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		return
	}
	changed := make(map[string]any, len(s.dirty))
	for name := range s.dirty {
		changed[name] = s.values[name]
	}
	s.dirty = make(map[string]bool)
	s.mu.Unlock()

	s.bus.Publish(events.Event{Kind: events.KindVariables, Variables: changed})
}
