package quota

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/stockscreen/backend/pkg/redis"
)

// DefaultDedupeWindow is how long a counted run id is remembered
const DefaultDedupeWindow = 24 * time.Hour

// RedisStore keeps quotas in Redis hashes
type RedisStore struct {
	counter *redis.UsageCounter
}

// NewRedisStore creates a Redis quota store under prefix
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{counter: redis.NewUsageCounter(client, prefix, DefaultDedupeWindow)}
}

// Lookup returns the identity's quota
func (s *RedisStore) Lookup(ctx context.Context, userID string) (Quota, error) {
	limit, used, err := s.counter.Get(ctx, userID)
	if errors.Is(err, redis.ErrCounterMissing) {
		return Quota{}, ErrUserNotFound
	}
	if err != nil {
		return Quota{}, err
	}
	return Quota{Limit: limit, Used: used}, nil
}

// Consumed reports whether runID was counted for the identity within the dedupe window
func (s *RedisStore) Consumed(ctx context.Context, userID, runID string) (bool, error) {
	return s.counter.Seen(ctx, userID, runID)
}

// Increment counts runID once for the identity
func (s *RedisStore) Increment(ctx context.Context, userID, runID string) error {
	_, err := s.counter.Increment(ctx, userID, runID)
	if errors.Is(err, redis.ErrCounterMissing) {
		return ErrUserNotFound
	}
	return err
}

// Reset zeroes usage for every identity
func (s *RedisStore) Reset(ctx context.Context) (int64, error) {
	return s.counter.ResetAll(ctx)
}

// SetLimit sets the identity's limit, keeping its usage
func (s *RedisStore) SetLimit(ctx context.Context, userID string, limit int64) error {
	return s.counter.Put(ctx, userID, limit)
}
