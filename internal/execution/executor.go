package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/stockscreen/backend/internal/backtestcfg"
	"github.com/wonny/stockscreen/backend/internal/quota"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

// State is a step of one run
type State string

const (
	StateChecking       State = "checking"
	StateConfigMissing  State = "config_missing"
	StateRejectedNoUser State = "rejected_no_user"
	StateRejectedQuota  State = "rejected_quota"
	StateRejectedReused State = "rejected_run_reused"
	StateLookupFailed   State = "lookup_failed"
	StateCalling        State = "calling"
	StateSucceeded      State = "succeeded"
	StateFailedRemote   State = "failed_remote"
	StateAccounted      State = "accounted"
)

// accountingTimeout bounds the usage increment after a successful call
const accountingTimeout = 5 * time.Second

// RunInput is one execution request
type RunInput struct {
	Request     *backtestcfg.Request
	UserID      string // empty when the caller has no identity
	ApplyQuota  bool   // false for internal/system runs
	RequireUser bool   // with ApplyQuota, an unknown identity is an error instead of a free run
	RunID       string // per-identity idempotency key for accounting; generated when empty
}

// RunResult is a successful run
type RunResult struct {
	RunID     string                 `json:"runId"`
	Raw       json.RawMessage        `json:"result"`
	Document  map[string]interface{} `json:"-"`
	Quota     *quota.Quota           `json:"quota,omitempty"` // pre-run quota, nil when not accounted
	Accounted bool                   `json:"accounted"`
}

// Executor gates remote runs on the caller's quota
// ⭐ SSOT: 백테스트 실행 + 사용량 차감은 여기서만
type Executor struct {
	remote   Remote
	store    quota.Store
	logger   *logger.Logger
	metrics  *Metrics
	newRunID func() string
}

// NewExecutor creates a new executor. store may be nil when quota never applies.
func NewExecutor(remote Remote, store quota.Store, log *logger.Logger, metrics *Metrics) *Executor {
	return &Executor{
		remote:   remote,
		store:    store,
		logger:   log.WithComponent("executor"),
		metrics:  metrics,
		newRunID: uuid.NewString,
	}
}

// Run checks quota, calls the remote executor once and counts the run.
// A failed usage increment is logged and does not fail the run.
func (e *Executor) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if e.remote == nil || !e.remote.Configured() {
		e.finish(StateConfigMissing, in, nil)
		return nil, ErrConfigurationMissing
	}

	runID := in.RunID
	if runID == "" {
		runID = e.newRunID()
	}
	log := e.logger.WithFields(map[string]interface{}{
		"run_id":  runID,
		"user_id": in.UserID,
	})

	// CHECKING
	var current *quota.Quota
	if in.ApplyQuota {
		q, found, err := e.lookup(ctx, in.UserID)
		if err != nil {
			e.finish(StateLookupFailed, in, err)
			return nil, err
		}

		switch {
		case !found && in.RequireUser:
			e.finish(StateRejectedNoUser, in, nil)
			return nil, fmt.Errorf("%w: %q", ErrIdentityNotFound, in.UserID)
		case !found:
			log.Debug("No identity, running without accounting")
		case q.Exhausted():
			e.finish(StateRejectedQuota, in, nil)
			return nil, &QuotaExceededError{Limit: q.Limit, Used: q.Used}
		default:
			current = &q
		}

		// a counted run id never buys another remote call
		if current != nil && in.RunID != "" {
			consumed, err := e.store.Consumed(ctx, in.UserID, runID)
			if err != nil {
				err = fmt.Errorf("run id lookup failed: %w", err)
				e.finish(StateLookupFailed, in, err)
				return nil, err
			}
			if consumed {
				e.finish(StateRejectedReused, in, nil)
				return nil, fmt.Errorf("%w: %q", ErrRunIDConsumed, runID)
			}
		}
	}

	// CALLING
	start := time.Now()
	resp, err := e.remote.Execute(ctx, in.Request)
	e.metrics.observeRemote(time.Since(start))
	if err != nil {
		e.finish(StateFailedRemote, in, err)
		return nil, err
	}

	result := &RunResult{
		RunID:    runID,
		Raw:      resp.Raw,
		Document: resp.Document,
		Quota:    current,
	}

	if current == nil {
		e.finish(StateSucceeded, in, nil)
		return result, nil
	}

	// ACCOUNTED
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), accountingTimeout)
	defer cancel()
	if err := e.store.Increment(actx, in.UserID, runID); err != nil {
		e.metrics.observeAccountingFailure()
		log.WithError(fmt.Errorf("%w: %w", ErrAccountingFailure, err)).Error("Usage increment failed")
		e.finish(StateSucceeded, in, nil)
		return result, nil
	}

	result.Accounted = true
	e.finish(StateAccounted, in, nil)
	return result, nil
}

// lookup resolves the identity's quota. found is false for an empty id or
// an identity the store does not know.
func (e *Executor) lookup(ctx context.Context, userID string) (quota.Quota, bool, error) {
	if userID == "" || e.store == nil {
		return quota.Quota{}, false, nil
	}

	q, err := e.store.Lookup(ctx, userID)
	if errors.Is(err, quota.ErrUserNotFound) {
		return quota.Quota{}, false, nil
	}
	if err != nil {
		return quota.Quota{}, false, fmt.Errorf("quota lookup failed: %w", err)
	}
	return q, true, nil
}

func (e *Executor) finish(state State, in RunInput, err error) {
	e.metrics.observeState(state)

	fields := map[string]interface{}{
		"state":       string(state),
		"user_id":     in.UserID,
		"apply_quota": in.ApplyQuota,
	}

	var qerr *QuotaExceededError
	var rerr *RemoteExecutionError
	switch {
	case errors.As(err, &rerr):
		fields["status"] = rerr.Status
		e.logger.WithFields(fields).WithError(err).Warn("Backtest run failed")
	case state == StateConfigMissing:
		e.logger.WithFields(fields).Error("Backtest run rejected: executor not configured")
	case state == StateLookupFailed:
		e.logger.WithFields(fields).WithError(err).Error("Backtest run aborted: quota lookup failed")
	case errors.As(err, &qerr), state == StateRejectedQuota, state == StateRejectedNoUser, state == StateRejectedReused:
		e.logger.WithFields(fields).Info("Backtest run rejected")
	default:
		e.logger.WithFields(fields).Info("Backtest run completed")
	}
}
