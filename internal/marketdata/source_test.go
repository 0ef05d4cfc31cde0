package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscreen/backend/internal/contracts"
	"github.com/wonny/stockscreen/backend/pkg/logger"
	"github.com/wonny/stockscreen/backend/pkg/redis"
)

type fakeStore struct {
	date    time.Time
	dateErr error
	rows    []contracts.ScreenerRow
	reads   int
}

func (f *fakeStore) LatestDate(_ context.Context) (time.Time, error) {
	return f.date, f.dateErr
}

func (f *fakeStore) RowsFor(_ context.Context, _ time.Time) ([]contracts.ScreenerRow, error) {
	f.reads++
	return f.rows, nil
}

var snapshotDate = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

func TestCachedSource_DisabledCacheReadsThrough(t *testing.T) {
	store := &fakeStore{date: snapshotDate, rows: []contracts.ScreenerRow{{Ticker: "AAPL"}}}
	disabled := redis.Wrap(nil)
	src := NewCachedSource(store, redis.NewCache(disabled, "screener"), logger.NewNop())

	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, _ = src.Rows(context.Background())
	assert.Equal(t, 2, store.reads)
}

func TestCachedSource_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := &fakeStore{date: snapshotDate}
	src := NewCachedSource(store, redis.NewCache(redis.Wrap(db), "screener"), logger.NewNop())

	cached, _ := json.Marshal([]contracts.ScreenerRow{{Ticker: "MSFT", PE: contracts.Float(31)}})
	mock.ExpectGet("screener:cache:snapshot:2024-06-14").SetVal(string(cached))

	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MSFT", rows[0].Ticker)
	assert.Equal(t, 31.0, *rows[0].PE)
	assert.Equal(t, 0, store.reads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSource_CacheErrorFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := &fakeStore{date: snapshotDate, rows: []contracts.ScreenerRow{{Ticker: "NVDA"}}}
	src := NewCachedSource(store, redis.NewCache(redis.Wrap(db), "screener"), logger.NewNop())

	mock.ExpectGet("screener:cache:snapshot:2024-06-14").SetErr(errors.New("connection refused"))

	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NVDA", rows[0].Ticker)
	assert.Equal(t, 1, store.reads)
}

func TestCachedSource_NoSnapshot(t *testing.T) {
	store := &fakeStore{dateErr: ErrNoSnapshot}
	src := NewCachedSource(store, redis.NewCache(redis.Wrap(nil), "screener"), logger.NewNop())

	_, err := src.Rows(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"ticker":"X","trend":"uptrend","pe":12},
		{"ticker":"Y","trend":"uptrend"}
	]`), 0o600))

	rows, err := NewFileSource(path).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 12.0, *rows[0].PE)
	assert.Nil(t, rows[1].PE)

	_, err = NewFileSource(filepath.Join(dir, "missing.json")).Rows(context.Background())
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, err = NewFileSource(bad).Rows(context.Background())
	assert.Error(t, err)
}
