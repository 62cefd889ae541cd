package api

import (
	"context"

	"github.com/myair/myair/internal/airquality"
)

// ReadingCache defines the cache operations needed by handlers.
type ReadingCache interface {
	Get(ctx context.Context, key string) (*airquality.Reading, error)
	Set(ctx context.Context, key string, r *airquality.Reading) error
}

// ReadingFetcher defines the lookup chain needed by handlers.
type ReadingFetcher interface {
	ByCity(ctx context.Context, city string) (*airquality.Reading, error)
	ByCoords(ctx context.Context, lat, lon float64, details bool) (*airquality.Reading, error)
}

// CachePinger is satisfied by every cache backend; used by the health check.
type CachePinger interface {
	Ping(ctx context.Context) error
}
