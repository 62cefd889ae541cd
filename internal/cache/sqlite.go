package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/myair/myair/internal/airquality"
)

// SQLite is the client's durable Store: a single-file expiring key-value
// table that survives across sessions. The same TTL and purge-on-access
// rules apply as for the in-memory backend.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLite opens (or creates) the cache file at path and ensures the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache file %s: %w", path, err)
	}

	s, err := NewSQLiteWithDB(db, time.Now)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteWithDB wraps an existing handle with an injectable clock (for tests)
// and ensures the schema.
func NewSQLiteWithDB(db *sql.DB, now func() time.Time) (*SQLite, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS aqi_cache (
			key       TEXT PRIMARY KEY,
			payload   TEXT NOT NULL,
			stored_at INTEGER NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating aqi_cache table: %w", err)
	}

	return &SQLite{db: db, ttl: TTL, now: now}, nil
}

// Get retrieves a cached reading, sweeping stale rows first.
// Returns nil, nil on a miss.
func (s *SQLite) Get(ctx context.Context, key string) (*airquality.Reading, error) {
	cutoff := s.now().Add(-s.ttl).Unix()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM aqi_cache WHERE stored_at <= ?`, cutoff); err != nil {
		return nil, fmt.Errorf("sweeping stale cache rows: %w", err)
	}

	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM aqi_cache WHERE key = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for %s: %w", key, err)
	}

	var reading airquality.Reading
	if err := json.Unmarshal([]byte(payload), &reading); err != nil {
		return nil, fmt.Errorf("unmarshaling cached reading for %s: %w", key, err)
	}

	return &reading, nil
}

// Set upserts a reading with the current timestamp.
func (s *SQLite) Set(ctx context.Context, key string, reading *airquality.Reading) error {
	if reading == nil {
		return nil
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshaling reading for %s: %w", key, err)
	}

	const q = `
		INSERT INTO aqi_cache (key, payload, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET payload   = excluded.payload,
		    stored_at = excluded.stored_at
	`
	if _, err := s.db.ExecContext(ctx, q, key, string(payload), s.now().Unix()); err != nil {
		return fmt.Errorf("cache set for %s: %w", key, err)
	}

	return nil
}

// Close releases the underlying handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping verifies the cache file is usable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
