package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscreen/backend/internal/contracts"
	"github.com/wonny/stockscreen/backend/internal/marketdata"
	"github.com/wonny/stockscreen/backend/internal/quota"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

type stubResetter struct {
	n   int64
	err error
}

func (s stubResetter) Reset(_ context.Context) (int64, error) { return s.n, s.err }

type failingSource struct{}

func (failingSource) Rows(_ context.Context) ([]contracts.ScreenerRow, error) {
	return nil, marketdata.ErrNoSnapshot
}

func TestQuotaResetJob(t *testing.T) {
	job := NewQuotaResetJob(stubResetter{n: 3}, "", logger.NewNop())
	assert.Equal(t, "quota_reset", job.Name())
	assert.Equal(t, DefaultQuotaResetSchedule, job.Schedule())
	assert.NoError(t, job.Run(context.Background()))

	job = NewQuotaResetJob(stubResetter{err: errors.New("db down")}, "@weekly", logger.NewNop())
	assert.Equal(t, "@weekly", job.Schedule())
	assert.Error(t, job.Run(context.Background()))
}

func TestQuotaResetJob_MemoryStore(t *testing.T) {
	ctx := context.Background()
	store := quota.NewMemoryStore()
	require.NoError(t, store.SetLimit(ctx, "u-1", 5))
	require.NoError(t, store.Increment(ctx, "u-1", "run-1"))

	require.NoError(t, NewQuotaResetJob(store, "", logger.NewNop()).Run(ctx))

	q, err := store.Lookup(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Used)
}

func TestSnapshotWarmJob(t *testing.T) {
	ok := NewSnapshotWarmJob(marketdata.StaticSource{{Ticker: "AAPL"}}, logger.NewNop())
	assert.NoError(t, ok.Run(context.Background()))

	err := NewSnapshotWarmJob(failingSource{}, logger.NewNop()).Run(context.Background())
	assert.ErrorIs(t, err, marketdata.ErrNoSnapshot)
}
