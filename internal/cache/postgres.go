package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myair/myair/internal/airquality"
)

// Querier abstracts the subset of pgxpool.Pool used by Postgres.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ConnectPostgres opens a pgxpool connection and verifies it with a ping.
func ConnectPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating pgxpool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// Postgres is a Store backed by an expiring key-value table. Readings
// survive edge restarts but obey the same TTL as every other backend.
// Stale rows are deleted on every read.
type Postgres struct {
	q    Querier
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewPostgres constructs a Postgres store backed by the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{q: pool, pool: pool, ttl: TTL, now: time.Now}
}

// NewPostgresWithQuerier constructs a Postgres store with a custom Querier and clock (for tests).
func NewPostgresWithQuerier(q Querier, now func() time.Time) *Postgres {
	return &Postgres{q: q, ttl: TTL, now: now}
}

// EnsureSchema creates the cache table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS aqi_cache (
			key       TEXT PRIMARY KEY,
			payload   JSONB NOT NULL,
			stored_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := p.q.Exec(ctx, q); err != nil {
		return fmt.Errorf("creating aqi_cache table: %w", err)
	}
	return nil
}

// Get retrieves a cached reading, sweeping stale rows first.
// Returns nil, nil on a miss.
func (p *Postgres) Get(ctx context.Context, key string) (*airquality.Reading, error) {
	cutoff := p.now().Add(-p.ttl)
	if _, err := p.q.Exec(ctx, `DELETE FROM aqi_cache WHERE stored_at <= $1`, cutoff); err != nil {
		return nil, fmt.Errorf("sweeping stale cache rows: %w", err)
	}

	var payload []byte
	err := p.q.QueryRow(ctx, `SELECT payload FROM aqi_cache WHERE key = $1`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for %s: %w", key, err)
	}

	var reading airquality.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return nil, fmt.Errorf("unmarshaling cached reading for %s: %w", key, err)
	}

	return &reading, nil
}

// Set upserts a reading with the current timestamp.
func (p *Postgres) Set(ctx context.Context, key string, reading *airquality.Reading) error {
	if reading == nil {
		return nil
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshaling reading for %s: %w", key, err)
	}

	const q = `
		INSERT INTO aqi_cache (key, payload, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET payload   = EXCLUDED.payload,
		    stored_at = EXCLUDED.stored_at
	`
	if _, err := p.q.Exec(ctx, q, key, payload, p.now()); err != nil {
		return fmt.Errorf("cache set for %s: %w", key, err)
	}

	return nil
}

// Close releases the pool if this store owns one.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// Ping verifies connectivity for the health check.
func (p *Postgres) Ping(ctx context.Context) error {
	var one int
	if err := p.q.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("pinging cache table: %w", err)
	}
	return nil
}
