package cache_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myair/myair/internal/cache"
)

// ---- mock Querier ----

type mockQuerier struct {
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFn(ctx, sql, args...)
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFn(ctx, sql, args...)
}

type fakeRow struct {
	scanFn func(dest ...any) error
}

func (f *fakeRow) Scan(dest ...any) error { return f.scanFn(dest...) }

func payloadRow(t *testing.T, reading any) pgx.Row {
	t.Helper()
	b, err := json.Marshal(reading)
	require.NoError(t, err)
	return &fakeRow{scanFn: func(dest ...any) error {
		*(dest[0].(*[]byte)) = b
		return nil
	}}
}

func TestPostgres_Get_Hit(t *testing.T) {
	var sweepCutoff time.Time
	q := &mockQuerier{
		execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			sweepCutoff = args[0].(time.Time)
			return pgconn.CommandTag{}, nil
		},
		queryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
			assert.Equal(t, "city:london", args[0])
			return payloadRow(t, sampleReading())
		},
	}

	now := time.Now()
	p := cache.NewPostgresWithQuerier(q, func() time.Time { return now })

	got, err := p.Get(context.Background(), "city:london")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.AQI)
	assert.Equal(t, now.Add(-cache.TTL), sweepCutoff, "sweep must use the TTL cutoff")
}

func TestPostgres_Get_Miss(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, nil
		},
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(_ ...any) error { return pgx.ErrNoRows }}
		},
	}

	p := cache.NewPostgresWithQuerier(q, time.Now)

	got, err := p.Get(context.Background(), "city:nowhere")
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss should return nil, nil")
}

func TestPostgres_Get_QueryError(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, nil
		},
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(_ ...any) error { return fmt.Errorf("connection reset") }}
		},
	}

	p := cache.NewPostgresWithQuerier(q, time.Now)

	_, err := p.Get(context.Background(), "city:london")
	require.Error(t, err)
}

func TestPostgres_Set_Upserts(t *testing.T) {
	var gotKey string
	var gotPayload []byte
	q := &mockQuerier{
		execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotKey = args[0].(string)
			gotPayload = args[1].([]byte)
			return pgconn.CommandTag{}, nil
		},
	}

	p := cache.NewPostgresWithQuerier(q, time.Now)

	require.NoError(t, p.Set(context.Background(), "geo:40.7128,-74.0060", sampleReading()))
	assert.Equal(t, "geo:40.7128,-74.0060", gotKey)
	assert.JSONEq(t, `{"aqi":2,"city":"London","country":"GB"}`, string(gotPayload))
}

func TestPostgres_Set_NilReading(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			t.Fatal("exec should not be called for nil reading")
			return pgconn.CommandTag{}, nil
		},
	}

	p := cache.NewPostgresWithQuerier(q, time.Now)
	require.NoError(t, p.Set(context.Background(), "city:london", nil))
}

func TestPostgres_Set_ExecError(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, fmt.Errorf("db down")
		},
	}

	p := cache.NewPostgresWithQuerier(q, time.Now)
	require.Error(t, p.Set(context.Background(), "city:london", sampleReading()))
}

func TestPostgres_EnsureSchema(t *testing.T) {
	created := false
	q := &mockQuerier{
		execFn: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS aqi_cache")
			created = true
			return pgconn.CommandTag{}, nil
		},
	}

	p := cache.NewPostgresWithQuerier(q, time.Now)
	require.NoError(t, p.EnsureSchema(context.Background()))
	assert.True(t, created)
}
