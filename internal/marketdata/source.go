package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/wonny/stockscreen/backend/internal/contracts"
	"github.com/wonny/stockscreen/backend/pkg/logger"
	"github.com/wonny/stockscreen/backend/pkg/redis"
)

// Source supplies the row set the screener filters
type Source interface {
	Rows(ctx context.Context) ([]contracts.ScreenerRow, error)
}

// SnapshotStore is what CachedSource needs from the repository
type SnapshotStore interface {
	LatestDate(ctx context.Context) (time.Time, error)
	RowsFor(ctx context.Context, date time.Time) ([]contracts.ScreenerRow, error)
}

// CachedSource serves the latest snapshot through a Redis read-through cache
type CachedSource struct {
	store  SnapshotStore
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSource creates a source over store. cache may wrap a disabled client.
func NewCachedSource(store SnapshotStore, cache *redis.Cache, log *logger.Logger) *CachedSource {
	return &CachedSource{
		store:  store,
		cache:  cache,
		ttl:    redis.TTLMedium,
		logger: log.WithComponent("marketdata"),
	}
}

// Rows returns the latest snapshot. Cache errors fall through to the database.
func (s *CachedSource) Rows(ctx context.Context) ([]contracts.ScreenerRow, error) {
	date, err := s.store.LatestDate(ctx)
	if err != nil {
		return nil, err
	}
	key := redis.SnapshotKey(date.Format("2006-01-02"))

	var rows []contracts.ScreenerRow
	found, err := s.cache.Get(ctx, key, &rows)
	if err != nil {
		s.logger.WithError(err).Warn("Snapshot cache read failed")
	}
	if found {
		return rows, nil
	}

	rows, err = s.store.RowsFor(ctx, date)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, rows, s.ttl); err != nil {
		s.logger.WithError(err).Warn("Snapshot cache write failed")
	}

	s.logger.WithFields(map[string]interface{}{
		"date": key,
		"rows": len(rows),
	}).Debug("Snapshot loaded")
	return rows, nil
}

// FileSource reads rows from a JSON array file
type FileSource struct {
	path string
}

// NewFileSource creates a source over a JSON file
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Rows decodes the file on every call
func (s *FileSource) Rows(_ context.Context) ([]contracts.ScreenerRow, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows file: %w", err)
	}

	var rows []contracts.ScreenerRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows file %s: %w", s.path, err)
	}
	return rows, nil
}

// StaticSource serves a fixed row set
type StaticSource []contracts.ScreenerRow

// Rows returns the fixed rows
func (s StaticSource) Rows(_ context.Context) ([]contracts.ScreenerRow, error) {
	return s, nil
}
