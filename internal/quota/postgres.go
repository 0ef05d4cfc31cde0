package quota

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

// DB is the subset of *pgxpool.Pool the store uses
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps quotas in screener.user_quotas
// ⭐ SSOT: 사용량 저장/조회는 여기서만 (Postgres)
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a new Postgres quota store
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the quota tables if they do not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create quota schema: %w", err)
	}
	return nil
}

// Lookup returns the identity's quota
func (s *PostgresStore) Lookup(ctx context.Context, userID string) (Quota, error) {
	query := `
		SELECT quota_limit, quota_used
		FROM screener.user_quotas
		WHERE user_id = $1
	`

	var q Quota
	err := s.db.QueryRow(ctx, query, userID).Scan(&q.Limit, &q.Used)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quota{}, ErrUserNotFound
	}
	if err != nil {
		return Quota{}, fmt.Errorf("failed to get quota: %w", err)
	}

	return q, nil
}

// Consumed reports whether runID was already counted for the identity
func (s *PostgresStore) Consumed(ctx context.Context, userID, runID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM screener.usage_events
			WHERE user_id = $1 AND run_id = $2
		)
	`

	var consumed bool
	if err := s.db.QueryRow(ctx, query, userID, runID).Scan(&consumed); err != nil {
		return false, fmt.Errorf("failed to check run id: %w", err)
	}
	return consumed, nil
}

// Increment records runID and bumps usage in one statement.
// A runID already recorded for the identity changes nothing.
func (s *PostgresStore) Increment(ctx context.Context, userID, runID string) error {
	query := `
		WITH q AS (
			SELECT user_id FROM screener.user_quotas WHERE user_id = $2
		), ev AS (
			INSERT INTO screener.usage_events (user_id, run_id)
			SELECT user_id, $1 FROM q
			ON CONFLICT (user_id, run_id) DO NOTHING
			RETURNING user_id
		), up AS (
			UPDATE screener.user_quotas uq
			SET quota_used = uq.quota_used + 1, updated_at = NOW()
			FROM ev
			WHERE uq.user_id = ev.user_id
			RETURNING uq.user_id
		)
		SELECT EXISTS (SELECT 1 FROM q), EXISTS (SELECT 1 FROM up)
	`

	var known, counted bool
	if err := s.db.QueryRow(ctx, query, runID, userID).Scan(&known, &counted); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	if !known {
		return ErrUserNotFound
	}

	return nil
}

// Reset zeroes usage for every identity and starts a new period
func (s *PostgresStore) Reset(ctx context.Context) (int64, error) {
	query := `
		UPDATE screener.user_quotas
		SET quota_used = 0, period_start = NOW(), updated_at = NOW()
	`

	tag, err := s.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reset usage: %w", err)
	}

	return tag.RowsAffected(), nil
}

// SetLimit upserts the identity's limit, keeping its usage
func (s *PostgresStore) SetLimit(ctx context.Context, userID string, limit int64) error {
	query := `
		INSERT INTO screener.user_quotas (user_id, quota_limit)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			quota_limit = EXCLUDED.quota_limit,
			updated_at = NOW()
	`

	if _, err := s.db.Exec(ctx, query, userID, limit); err != nil {
		return fmt.Errorf("failed to set quota limit: %w", err)
	}

	return nil
}
