package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/myair/myair/internal/airquality"
)

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// Redis is a Store backed by a Redis instance. Expiry is delegated to the
// server-side TTL, so entries vanish rather than being swept on access.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis store with the fixed TTL.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, ttl: TTL}
}

// Get retrieves a cached reading. Returns nil, nil on a miss.
func (r *Redis) Get(ctx context.Context, key string) (*airquality.Reading, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for %s: %w", key, err)
	}

	var reading airquality.Reading
	if err := json.Unmarshal([]byte(val), &reading); err != nil {
		return nil, fmt.Errorf("unmarshaling cached reading for %s: %w", key, err)
	}

	return &reading, nil
}

// Set stores a reading with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, reading *airquality.Reading) error {
	if reading == nil {
		return nil
	}

	b, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshaling reading for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for %s: %w", key, err)
	}

	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping verifies connectivity for the health check.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
