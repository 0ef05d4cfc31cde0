package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UsageCounter keeps per-identity {limit, used} hashes and increments usage
// at most once per operation id.
// ⭐ SSOT: 사용량 카운터는 여기서만
type UsageCounter struct {
	client *Client
	prefix string
	dedupe time.Duration
}

// ErrCounterMissing is returned when no hash exists for the identity
var ErrCounterMissing = errors.New("usage counter not found")

// NewUsageCounter creates a counter. dedupe is how long an operation id is remembered.
func NewUsageCounter(client *Client, prefix string, dedupe time.Duration) *UsageCounter {
	return &UsageCounter{client: client, prefix: prefix, dedupe: dedupe}
}

// KEYS[1] = usage hash, KEYS[2] = operation marker
// returns 1 when counted, 0 when the operation id was already seen, -1 when the hash is missing
var incrementScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return -1
	end
	if redis.call('SET', KEYS[2], 1, 'NX', 'PX', ARGV[1]) == false then
		return 0
	end
	redis.call('HINCRBY', KEYS[1], 'used', 1)
	return 1
`)

func (u *UsageCounter) usageKey(id string) string {
	return fmt.Sprintf("%s:usage:%s", u.prefix, id)
}

func (u *UsageCounter) opKey(id, opID string) string {
	return fmt.Sprintf("%s:usage-op:%s:%s", u.prefix, id, opID)
}

// Get returns (limit, used) for the identity
func (u *UsageCounter) Get(ctx context.Context, id string) (int64, int64, error) {
	if !u.client.Enabled() {
		return 0, 0, fmt.Errorf("redis disabled")
	}

	vals, err := u.client.Redis().HMGet(ctx, u.usageKey(id), "limit", "used").Result()
	if err != nil {
		return 0, 0, fmt.Errorf("usage lookup failed: %w", err)
	}
	if vals[0] == nil {
		return 0, 0, ErrCounterMissing
	}

	limit, err := toInt64(vals[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid limit: %w", err)
	}
	used, err := toInt64(vals[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid used: %w", err)
	}
	return limit, used, nil
}

// Put creates or replaces the identity's limit without touching usage
func (u *UsageCounter) Put(ctx context.Context, id string, limit int64) error {
	if !u.client.Enabled() {
		return fmt.Errorf("redis disabled")
	}
	return u.client.Redis().HSet(ctx, u.usageKey(id), "limit", limit).Err()
}

// Increment adds one to the identity's usage unless opID was already counted.
// Returns whether this call counted.
func (u *UsageCounter) Increment(ctx context.Context, id, opID string) (bool, error) {
	if !u.client.Enabled() {
		return false, fmt.Errorf("redis disabled")
	}

	res, err := incrementScript.Run(ctx, u.client.Redis(),
		[]string{u.usageKey(id), u.opKey(id, opID)},
		u.dedupe.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("usage increment script failed: %w", err)
	}

	switch res {
	case -1:
		return false, ErrCounterMissing
	case 0:
		return false, nil
	default:
		return true, nil
	}
}

// Seen reports whether opID was counted for the identity and its marker is still live
func (u *UsageCounter) Seen(ctx context.Context, id, opID string) (bool, error) {
	if !u.client.Enabled() {
		return false, fmt.Errorf("redis disabled")
	}

	n, err := u.client.Redis().Exists(ctx, u.opKey(id, opID)).Result()
	if err != nil {
		return false, fmt.Errorf("usage marker lookup failed: %w", err)
	}
	return n > 0, nil
}

// ResetAll zeroes usage on every identity hash under the prefix
func (u *UsageCounter) ResetAll(ctx context.Context) (int64, error) {
	if !u.client.Enabled() {
		return 0, fmt.Errorf("redis disabled")
	}

	var reset int64
	iter := u.client.Redis().Scan(ctx, 0, u.usageKey("*"), 200).Iterator()
	for iter.Next(ctx) {
		if err := u.client.Redis().HSet(ctx, iter.Val(), "used", 0).Err(); err != nil {
			return reset, fmt.Errorf("reset %s: %w", iter.Val(), err)
		}
		reset++
	}
	if err := iter.Err(); err != nil {
		return reset, fmt.Errorf("scan usage keys: %w", err)
	}
	return reset, nil
}

func toInt64(v interface{}) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return val, nil
	case string:
		var n int64
		_, err := fmt.Sscan(val, &n)
		return n, err
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
