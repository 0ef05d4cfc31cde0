package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscreen/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	cache := NewCache(client, "test")

	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(context.Background(), "key", "value", TTLShort))
}

func TestCache_GetHitAndMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(Wrap(db), "screener")

	mock.ExpectGet("screener:cache:snapshot:2024-01-02").SetVal(`["AAPL","MSFT"]`)
	mock.ExpectGet("screener:cache:snapshot:2024-01-03").RedisNil()

	var tickers []string
	found, err := cache.Get(context.Background(), SnapshotKey("2024-01-02"), &tickers)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)

	found, err = cache.Get(context.Background(), SnapshotKey("2024-01-03"), &tickers)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageCounter_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	counter := NewUsageCounter(Wrap(db), "screener", time.Hour)

	mock.ExpectHMGet("screener:usage:u-1", "limit", "used").SetVal([]interface{}{"5", "3"})
	mock.ExpectHMGet("screener:usage:ghost", "limit", "used").SetVal([]interface{}{nil, nil})
	mock.ExpectHMGet("screener:usage:bad", "limit", "used").SetVal([]interface{}{"5", "x"})

	limit, used, err := counter.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), limit)
	assert.Equal(t, int64(3), used)

	_, _, err = counter.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrCounterMissing)

	_, _, err = counter.Get(context.Background(), "bad")
	assert.Error(t, err, "corrupt usage never reads as zero")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageCounter_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	counter := NewUsageCounter(client, "screener", time.Hour)

	_, err := counter.Increment(context.Background(), "u-1", "run-1")
	assert.Error(t, err)
}

func TestToInt64(t *testing.T) {
	n, err := toInt64("-1")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)

	n, err = toInt64(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = toInt64(3.5)
	assert.Error(t, err)
}

func TestUsageCounter_Seen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	counter := NewUsageCounter(Wrap(db), "screener", time.Hour)

	mock.ExpectExists("screener:usage-op:u-1:run-1").SetVal(1)
	mock.ExpectExists("screener:usage-op:u-2:run-1").SetVal(0)

	seen, err := counter.Seen(context.Background(), "u-1", "run-1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = counter.Seen(context.Background(), "u-2", "run-1")
	require.NoError(t, err)
	assert.False(t, seen)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "snapshot:2024-01-15", SnapshotKey("2024-01-15"))
}

func TestUsageCounter_Increment(t *testing.T) {
	db, mock := redismock.NewClientMock()
	counter := NewUsageCounter(Wrap(db), "screener", time.Hour)
	keys := []string{"screener:usage:u-1", "screener:usage-op:u-1:run-1"}
	ttl := time.Hour.Milliseconds()

	mock.ExpectEvalSha(incrementScript.Hash(), keys, ttl).SetVal(int64(1))
	mock.ExpectEvalSha(incrementScript.Hash(), keys, ttl).SetVal(int64(0))
	mock.ExpectEvalSha(incrementScript.Hash(), keys, ttl).SetVal(int64(-1))

	counted, err := counter.Increment(context.Background(), "u-1", "run-1")
	require.NoError(t, err)
	assert.True(t, counted)

	counted, err = counter.Increment(context.Background(), "u-1", "run-1")
	require.NoError(t, err)
	assert.False(t, counted, "same run id is counted once")

	_, err = counter.Increment(context.Background(), "u-1", "run-1")
	assert.ErrorIs(t, err, ErrCounterMissing)

	assert.NoError(t, mock.ExpectationsWereMet())
}
