// Package cache provides the expiring key-value store shared by the edge
// proxy and the client. Entries are valid for ten minutes; expired entries
// are treated as absent and purged on access. Store errors are advisory:
// the cache is an optimization, callers log failures and continue.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/myair/myair/internal/airquality"
)

// TTL is the fixed lifetime shared by all entries in every backend.
const TTL = 10 * time.Minute

// Store is the cache interface consumed by lookup paths.
// Get returns nil, nil on a miss.
type Store interface {
	Get(ctx context.Context, key string) (*airquality.Reading, error)
	Set(ctx context.Context, key string, r *airquality.Reading) error
	Close() error
}

type memoryEntry struct {
	reading  airquality.Reading
	storedAt time.Time
}

// Memory is a process-lifetime Store backed by a mutex-guarded map.
// Every access sweeps all expired entries, so the map only grows with the
// number of distinct locations looked up within one TTL window.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory constructs a Memory store with the fixed TTL.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock constructs a Memory store with an injectable clock (for tests).
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     TTL,
		now:     now,
	}
}

// Get returns the cached reading for key, or nil, nil if absent or expired.
func (m *Memory) Get(_ context.Context, key string) (*airquality.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()

	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}

	r := e.reading
	return &r, nil
}

// Set stores the reading under key with the current timestamp, overwriting
// any prior entry.
func (m *Memory) Set(_ context.Context, key string, r *airquality.Reading) error {
	if r == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{reading: *r, storedAt: m.now()}
	return nil
}

// Close is a no-op; the store holds no external resources.
func (m *Memory) Close() error {
	return nil
}

// Ping always succeeds; satisfies the health-check pinger.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	return len(m.entries)
}

// sweepLocked removes every entry at or past its TTL. Must be called with mu held.
func (m *Memory) sweepLocked() {
	cutoff := m.now().Add(-m.ttl)
	for k, e := range m.entries {
		if !e.storedAt.After(cutoff) {
			delete(m.entries, k)
		}
	}
}
