package quota

import (
	"context"
	"errors"
)

// Unlimited is the limit sentinel for identities without a cap
const Unlimited int64 = -1

// ErrUserNotFound is returned when the store has no quota row for the identity
var ErrUserNotFound = errors.New("quota: user not found")

// Quota is an identity's cap and usage for the current period
type Quota struct {
	Limit int64 `json:"limit"`
	Used  int64 `json:"used"`
}

// IsUnlimited reports whether the limit is the unlimited sentinel
func (q Quota) IsUnlimited() bool {
	return q.Limit == Unlimited
}

// Exhausted reports whether a finite limit has been reached
func (q Quota) Exhausted() bool {
	return !q.IsUnlimited() && q.Used >= q.Limit
}

// Remaining returns the runs left, or Unlimited
func (q Quota) Remaining() int64 {
	if q.IsUnlimited() {
		return Unlimited
	}
	if q.Used >= q.Limit {
		return 0
	}
	return q.Limit - q.Used
}

// Store is read/increment access to per-identity usage.
// Run ids are scoped to the identity: Increment counts a (userID, runID)
// pair at most once and Consumed reports whether the pair was counted.
type Store interface {
	Lookup(ctx context.Context, userID string) (Quota, error)
	Consumed(ctx context.Context, userID, runID string) (bool, error)
	Increment(ctx context.Context, userID, runID string) error
}

// Resetter zeroes usage at the start of an accounting period
type Resetter interface {
	Reset(ctx context.Context) (int64, error)
}

// Provisioner sets an identity's limit, creating it when absent
type Provisioner interface {
	SetLimit(ctx context.Context, userID string, limit int64) error
}
