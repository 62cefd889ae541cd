// Package lookup is the client-side orchestrator: it resolves a lookup
// target through a local expiring cache before going to a Source, and
// formats results and failures as the fixed status lines shown to users.
package lookup

import (
	"context"
	"log/slog"

	"github.com/myair/myair/internal/airquality"
)

// Source yields a reading for a lookup target. Satisfied by the direct
// provider fetcher and by ProxyClient.
type Source interface {
	ByCity(ctx context.Context, city string) (*airquality.Reading, error)
	ByCoords(ctx context.Context, lat, lon float64, details bool) (*airquality.Reading, error)
}

// Store is the slice of the cache used by the service.
type Store interface {
	Get(ctx context.Context, key string) (*airquality.Reading, error)
	Set(ctx context.Context, key string, r *airquality.Reading) error
}

// Service looks up readings cache-first. Store failures are logged and
// swallowed; the cache is never a correctness dependency.
type Service struct {
	source Source
	store  Store
	log    *slog.Logger
}

// NewService constructs a Service.
func NewService(source Source, store Store, log *slog.Logger) *Service {
	return &Service{source: source, store: store, log: log}
}

// Lookup returns the reading for key, serving from cache when a fresh entry
// exists and populating the cache after a successful fetch.
func (s *Service) Lookup(ctx context.Context, key airquality.Key, details bool) (*airquality.Reading, error) {
	ck := key.CacheKey()

	cached, err := s.store.Get(ctx, ck)
	if err != nil {
		s.log.Warn("cache get failed", "key", ck, "err", err)
	}
	if cached != nil {
		return cached, nil
	}

	var reading *airquality.Reading
	if key.IsCity() {
		reading, err = s.source.ByCity(ctx, key.City)
	} else {
		reading, err = s.source.ByCoords(ctx, key.Lat, key.Lon, details)
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, ck, reading); err != nil {
		s.log.Warn("cache set failed", "key", ck, "err", err)
	}

	return reading, nil
}
