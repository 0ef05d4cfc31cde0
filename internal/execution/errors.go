package execution

import (
	"errors"
	"fmt"

	"github.com/wonny/stockscreen/backend/pkg/httputil"
)

// Execution error kinds. Match with errors.Is; the typed errors below wrap them.
var (
	// ErrConfigurationMissing is returned when no remote executor is configured
	ErrConfigurationMissing = errors.New("remote executor not configured")

	// ErrIdentityNotFound is returned when quota applies, a known identity is required and none resolves
	ErrIdentityNotFound = errors.New("user not found")

	// ErrQuotaExceeded is returned when a finite quota is used up
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrRunIDConsumed is returned when the caller reuses a run id that was already counted
	ErrRunIDConsumed = errors.New("run id already used")

	// ErrRemoteExecutionFailed is returned when the remote executor does not succeed
	ErrRemoteExecutionFailed = errors.New("remote execution failed")

	// ErrAccountingFailure marks a usage increment that could not be persisted.
	// It is logged, never returned from Run.
	ErrAccountingFailure = errors.New("usage accounting failed")
)

// QuotaExceededError carries the quota that rejected the run
type QuotaExceededError struct {
	Limit int64
	Used  int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: used %d of %d", e.Used, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// RemoteExecutionError carries the upstream response of a failed run.
// Status is 0 when no response was received.
type RemoteExecutionError struct {
	Status     int
	StatusText string
	Body       string
	Cause      error
}

func (e *RemoteExecutionError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("remote execution failed: %s", e.StatusText)
	}
	return fmt.Sprintf("remote execution failed: %d %s", e.Status, e.StatusText)
}

func (e *RemoteExecutionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRemoteExecutionFailed}
	}
	return []error{ErrRemoteExecutionFailed, e.Cause}
}

// Retryable reports whether the caller may retry with backoff
func (e *RemoteExecutionError) Retryable() bool {
	return e.Status == 0 || httputil.IsRetryableError(e.Status)
}
