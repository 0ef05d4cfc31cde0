package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscreen/backend/internal/backtestcfg"
	"github.com/wonny/stockscreen/backend/internal/quota"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

type stubRemote struct {
	configured bool
	calls      int
	err        error
}

func (s *stubRemote) Configured() bool { return s.configured }

func (s *stubRemote) Execute(_ context.Context, _ *backtestcfg.Request) (*Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Response{
		Status:   200,
		Raw:      []byte(`{"summary":{"sharpeRatio":1.5}}`),
		Document: map[string]interface{}{"summary": map[string]interface{}{"sharpeRatio": 1.5}},
	}, nil
}

type failingStore struct {
	quota.Store
	lookupErr    error
	consumedErr  error
	incrementErr error
	increments   int
}

func (s *failingStore) Lookup(ctx context.Context, userID string) (quota.Quota, error) {
	if s.lookupErr != nil {
		return quota.Quota{}, s.lookupErr
	}
	return s.Store.Lookup(ctx, userID)
}

func (s *failingStore) Consumed(ctx context.Context, userID, runID string) (bool, error) {
	if s.consumedErr != nil {
		return false, s.consumedErr
	}
	return s.Store.Consumed(ctx, userID, runID)
}

func (s *failingStore) Increment(_ context.Context, _, _ string) error {
	s.increments++
	return s.incrementErr
}

func newStore(t *testing.T, limits map[string]int64, used map[string]int) *quota.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := quota.NewMemoryStore()
	for id, limit := range limits {
		require.NoError(t, store.SetLimit(ctx, id, limit))
		for i := 0; i < used[id]; i++ {
			require.NoError(t, store.Increment(ctx, id, id+"-seed-"+string(rune('a'+i))))
		}
	}
	return store
}

func newExecutor(remote Remote, store quota.Store) (*Executor, *Metrics) {
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewExecutor(remote, store, logger.NewNop(), metrics), metrics
}

func TestRun_QuotaGateRejectsWithoutCalling(t *testing.T) {
	remote := &stubRemote{configured: true}
	store := newStore(t, map[string]int64{"u-1": 5}, map[string]int{"u-1": 5})
	exec, metrics := newExecutor(remote, store)

	_, err := exec.Run(context.Background(), RunInput{Request: &backtestcfg.Request{}, UserID: "u-1", ApplyQuota: true})

	require.ErrorIs(t, err, ErrQuotaExceeded)
	var qerr *QuotaExceededError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, int64(5), qerr.Limit)
	assert.Equal(t, int64(5), qerr.Used)
	assert.Equal(t, 0, remote.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues(string(StateRejectedQuota))))
}

func TestRun_SucceedsAndCountsOnce(t *testing.T) {
	ctx := context.Background()
	remote := &stubRemote{configured: true}
	store := newStore(t, map[string]int64{"u-1": 5}, map[string]int{"u-1": 4})
	exec, _ := newExecutor(remote, store)

	res, err := exec.Run(ctx, RunInput{Request: &backtestcfg.Request{}, UserID: "u-1", ApplyQuota: true, RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	assert.True(t, res.Accounted)
	require.NotNil(t, res.Quota)
	assert.Equal(t, quota.Quota{Limit: 5, Used: 4}, *res.Quota)
	assert.Equal(t, 1, remote.calls)

	q, _ := store.Lookup(ctx, "u-1")
	assert.Equal(t, int64(5), q.Used)

	_, err = exec.Run(ctx, RunInput{Request: &backtestcfg.Request{}, UserID: "u-1", ApplyQuota: true})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 1, remote.calls)
}

func TestRun_Unlimited(t *testing.T) {
	remote := &stubRemote{configured: true}
	store := newStore(t, map[string]int64{"vip": quota.Unlimited}, map[string]int{"vip": 3})
	exec, _ := newExecutor(remote, store)

	res, err := exec.Run(context.Background(), RunInput{Request: &backtestcfg.Request{}, UserID: "vip", ApplyQuota: true})
	require.NoError(t, err)
	assert.True(t, res.Accounted)
	assert.NotEmpty(t, res.RunID, "run id generated")
	assert.Equal(t, 1, remote.calls)
}

func TestRun_Identity(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		requireUser bool
		applyQuota  bool
		wantErr     error
		wantCalls   int
	}{
		{"anonymous required", "", true, true, ErrIdentityNotFound, 0},
		{"unknown required", "ghost", true, true, ErrIdentityNotFound, 0},
		{"anonymous skips accounting", "", false, true, nil, 1},
		{"unknown skips accounting", "ghost", false, true, nil, 1},
		{"system run bypasses quota", "", true, false, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &stubRemote{configured: true}
			exec, _ := newExecutor(remote, quota.NewMemoryStore())

			res, err := exec.Run(context.Background(), RunInput{
				Request:     &backtestcfg.Request{},
				UserID:      tt.userID,
				ApplyQuota:  tt.applyQuota,
				RequireUser: tt.requireUser,
			})

			assert.Equal(t, tt.wantCalls, remote.calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, res.Accounted)
			assert.Nil(t, res.Quota)
		})
	}
}

func TestRun_ConfigurationMissing(t *testing.T) {
	remote := &stubRemote{configured: false}
	exec, _ := newExecutor(remote, quota.NewMemoryStore())

	_, err := exec.Run(context.Background(), RunInput{Request: &backtestcfg.Request{}, UserID: "u-1", ApplyQuota: true})
	assert.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Equal(t, 0, remote.calls)

	exec, _ = newExecutor(nil, nil)
	_, err = exec.Run(context.Background(), RunInput{})
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestRun_RemoteFailureIsTypedAndNotCounted(t *testing.T) {
	ctx := context.Background()
	remote := &stubRemote{configured: true, err: &RemoteExecutionError{Status: 503, StatusText: "Service Unavailable", Body: "busy"}}
	store := newStore(t, map[string]int64{"u-1": 5}, nil)
	exec, _ := newExecutor(remote, store)

	_, err := exec.Run(ctx, RunInput{Request: &backtestcfg.Request{}, UserID: "u-1", ApplyQuota: true})

	require.ErrorIs(t, err, ErrRemoteExecutionFailed)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
	var rerr *RemoteExecutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 503, rerr.Status)
	assert.Equal(t, "busy", rerr.Body)
	assert.True(t, rerr.Retryable())

	q, _ := store.Lookup(ctx, "u-1")
	assert.Equal(t, int64(0), q.Used)
}

func TestRun_AccountingFailureDoesNotFailRun(t *testing.T) {
	remote := &stubRemote{configured: true}
	store := &failingStore{
		Store:        newStore(t, map[string]int64{"u-1": 5}, nil),
		incrementErr: errors.New("redis timeout"),
	}
	exec, metrics := newExecutor(remote, store)

	res, err := exec.Run(context.Background(), RunInput{Request: &backtestcfg.Request{}, UserID: "u-1", ApplyQuota: true})

	require.NoError(t, err)
	assert.NotNil(t, res.Document)
	assert.False(t, res.Accounted)
	assert.Equal(t, 1, store.increments)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AccountingFailures))
}

func TestRun_LookupFailureStopsRun(t *testing.T) {
	remote := &stubRemote{configured: true}
	store := &failingStore{Store: quota.NewMemoryStore(), lookupErr: errors.New("db down")}
	exec, metrics := newExecutor(remote, store)

	_, err := exec.Run(context.Background(), RunInput{Request: &backtestcfg.Request{}, UserID: "u-1", ApplyQuota: true})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIdentityNotFound)
	assert.Equal(t, 0, remote.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues(string(StateLookupFailed))))
}

func TestRun_ReusedRunIDNeverCallsAgain(t *testing.T) {
	ctx := context.Background()
	remote := &stubRemote{configured: true}
	store := newStore(t, map[string]int64{"u-1": 2, "u-2": 1}, nil)
	exec, metrics := newExecutor(remote, store)

	successes := 0
	for i := 0; i < 10; i++ {
		_, err := exec.Run(ctx, RunInput{Request: &backtestcfg.Request{}, UserID: "u-1", ApplyQuota: true, RunID: "same"})
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrRunIDConsumed)
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, remote.calls)
	q, _ := store.Lookup(ctx, "u-1")
	assert.Equal(t, int64(1), q.Used)
	assert.Equal(t, 9.0, testutil.ToFloat64(metrics.Runs.WithLabelValues(string(StateRejectedReused))))

	// the same id under another identity is a separate run
	res, err := exec.Run(ctx, RunInput{Request: &backtestcfg.Request{}, UserID: "u-2", ApplyQuota: true, RunID: "same"})
	require.NoError(t, err)
	assert.True(t, res.Accounted)
	assert.Equal(t, 2, remote.calls)
	q, _ = store.Lookup(ctx, "u-2")
	assert.Equal(t, int64(1), q.Used)
}

func TestRun_RunIDCheckFailureStopsRun(t *testing.T) {
	remote := &stubRemote{configured: true}
	store := &failingStore{
		Store:       newStore(t, map[string]int64{"u-1": 5}, nil),
		consumedErr: errors.New("db down"),
	}
	exec, metrics := newExecutor(remote, store)

	_, err := exec.Run(context.Background(), RunInput{Request: &backtestcfg.Request{}, UserID: "u-1", ApplyQuota: true, RunID: "r-1"})

	require.Error(t, err)
	assert.Equal(t, 0, remote.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues(string(StateLookupFailed))))
}

func TestRemoteExecutionError(t *testing.T) {
	assert.Equal(t, "remote execution failed: 502 Bad Gateway", (&RemoteExecutionError{Status: 502, StatusText: "Bad Gateway"}).Error())
	assert.Equal(t, "remote execution failed: dial tcp: refused", (&RemoteExecutionError{StatusText: "dial tcp: refused"}).Error())
	assert.False(t, (&RemoteExecutionError{Status: 400}).Retryable())
	assert.True(t, (&RemoteExecutionError{Status: 429}).Retryable())

	cause := errors.New("connection reset")
	err := error(&RemoteExecutionError{StatusText: cause.Error(), Cause: cause})
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrRemoteExecutionFailed)
}
