package cache_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myair/myair/internal/airquality"
	"github.com/myair/myair/internal/cache"
)

func newTestSQLite(t *testing.T, now *time.Time) *cache.SQLite {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := cache.NewSQLiteWithDB(db, func() time.Time { return *now })
	require.NoError(t, err)
	return s
}

func TestSQLite_SetAndGet(t *testing.T) {
	now := time.Now()
	s := newTestSQLite(t, &now)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "city:london", sampleReading()))

	got, err := s.Get(ctx, "city:london")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.AQI)
	assert.Equal(t, "London", got.City)
	assert.Equal(t, "GB", got.Country)
}

func TestSQLite_Get_Miss(t *testing.T) {
	now := time.Now()
	s := newTestSQLite(t, &now)

	got, err := s.Get(context.Background(), "city:nowhere")
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss should return nil, nil")
}

func TestSQLite_Overwrite(t *testing.T) {
	now := time.Now()
	s := newTestSQLite(t, &now)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "city:london", &airquality.Reading{AQI: 1}))
	require.NoError(t, s.Set(ctx, "city:london", &airquality.Reading{AQI: 5}))

	got, err := s.Get(ctx, "city:london")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.AQI)
}

func TestSQLite_TTLExpiry(t *testing.T) {
	now := time.Now()
	s := newTestSQLite(t, &now)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "geo:40.7128,-74.0060", sampleReading()))

	now = now.Add(cache.TTL + time.Second)

	got, err := s.Get(ctx, "geo:40.7128,-74.0060")
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be absent after TTL")
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := cache.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "city:london", sampleReading()))
	require.NoError(t, s.Close())

	// A new session sees the previous session's entry.
	s2, err := cache.OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "city:london")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.AQI)
}

func TestSQLite_Set_NilReading(t *testing.T) {
	now := time.Now()
	s := newTestSQLite(t, &now)
	require.NoError(t, s.Set(context.Background(), "city:london", nil))
}
