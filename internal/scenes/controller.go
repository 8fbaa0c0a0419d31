// Package scenes switches the live broadcast scene through whichever
// broadcast-control backend is connected, enforcing a cooldown between
// switches.
package scenes

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"songswitcher/internal/monitoring"
)

const DefaultCooldown = 3 * time.Second

// Backend is one broadcast-control connection.
type Backend interface {
	Name() string
	// Connected must be side-effect free.
	Connected() bool
	Connect(ctx context.Context) error
	CurrentScene(ctx context.Context) (string, error)
	SetScene(ctx context.Context, name string) error
	Close() error
}

// SwitchObserver is told about every switch decision.
type SwitchObserver interface {
	SwitchApplied()
	SwitchSuppressed()
}

type Controller struct {
	mu       sync.Mutex
	backends []Backend
	cooldown time.Duration
	last     time.Time
	observer SwitchObserver
	now      func() time.Time
}

// NewController queries backends in the given priority order.
func NewController(cooldown time.Duration, backends ...Backend) *Controller {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Controller{
		backends: backends,
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (c *Controller) WithObserver(o SwitchObserver) *Controller {
	c.observer = o
	return c
}

// Connect tries every disconnected backend in parallel. Failures are logged
// and retried on the next call.
func (c *Controller) Connect(ctx context.Context) {
	var g errgroup.Group
	for _, b := range c.backends {
		if b.Connected() {
			continue
		}
		b := b
		g.Go(func() error {
			if err := b.Connect(ctx); err != nil {
				monitoring.Debugf("[Scenes] %s not reachable: %v\n", b.Name(), err)
				return nil
			}
			monitoring.Infof("[Scenes] Connected to %s\n", b.Name())
			return nil
		})
	}
	g.Wait()
}

// Active returns the first connected backend, or nil.
func (c *Controller) Active() Backend {
	for _, b := range c.backends {
		if b.Connected() {
			return b
		}
	}
	return nil
}

// CurrentScene returns the live scene, or "" when nothing is connected.
func (c *Controller) CurrentScene(ctx context.Context) string {
	b := c.Active()
	if b == nil {
		return ""
	}
	scene, err := b.CurrentScene(ctx)
	if err != nil {
		monitoring.Warnf("[Scenes] %s current scene: %v\n", b.Name(), err)
		return ""
	}
	return scene
}

// RequestSwitch applies the switch unless the cooldown has not elapsed.
// It reports whether the switch reached a backend.
func (c *Controller) RequestSwitch(ctx context.Context, scene string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inCooldownLocked() {
		monitoring.Debugf("[Scenes] Switch to %q suppressed, %v since last switch\n", scene, c.now().Sub(c.last))
		c.suppressed()
		return false
	}
	b := c.Active()
	if b == nil {
		monitoring.Debugf("[Scenes] Switch to %q dropped, no backend connected\n", scene)
		c.suppressed()
		return false
	}
	if err := b.SetScene(ctx, scene); err != nil {
		monitoring.Warnf("[Scenes] %s switch to %q failed: %v\n", b.Name(), scene, err)
		c.suppressed()
		return false
	}
	c.last = c.now()
	monitoring.Infof("[Scenes] Switched to %q via %s\n", scene, b.Name())
	if c.observer != nil {
		c.observer.SwitchApplied()
	}
	return true
}

func (c *Controller) InCooldown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inCooldownLocked()
}

// SinceLastSwitch is effectively unbounded before the first switch.
func (c *Controller) SinceLastSwitch() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return c.now().Sub(c.last)
}

// Reset clears the cooldown and closes every backend so the next Connect
// starts fresh.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.last = time.Time{}
	c.mu.Unlock()
	for _, b := range c.backends {
		if err := b.Close(); err != nil {
			monitoring.Debugf("[Scenes] closing %s: %v\n", b.Name(), err)
		}
	}
}

func (c *Controller) inCooldownLocked() bool {
	return !c.last.IsZero() && c.now().Sub(c.last) < c.cooldown
}

func (c *Controller) suppressed() {
	if c.observer != nil {
		c.observer.SwitchSuppressed()
	}
}
