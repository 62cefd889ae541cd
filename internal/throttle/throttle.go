// Package throttle gates user-initiated lookups to at most one per fixed
// interval. Automatic lookups (the startup coordinate check) bypass the
// guard entirely.
package throttle

import (
	"sync"
	"time"
)

// Interval is the minimum spacing between granted user-triggered lookups.
const Interval = 10 * time.Second

// Guard grants at most one acquisition per interval. A grant resets the
// reference time; a denial leaves it untouched.
type Guard struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewGuard constructs a Guard with the fixed interval.
func NewGuard() *Guard {
	return NewGuardWithClock(time.Now)
}

// NewGuardWithClock constructs a Guard with an injectable clock (for tests).
func NewGuardWithClock(now func() time.Time) *Guard {
	return &Guard{interval: Interval, now: now}
}

// TryAcquire reports whether a user-triggered lookup may proceed.
func (g *Guard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if !g.last.IsZero() && now.Sub(g.last) < g.interval {
		return false
	}

	g.last = now
	return true
}

// Remaining returns how long until the next acquisition would be granted.
// Zero means a call to TryAcquire would succeed now.
func (g *Guard) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.last.IsZero() {
		return 0
	}

	left := g.interval - g.now().Sub(g.last)
	if left < 0 {
		return 0
	}
	return left
}
