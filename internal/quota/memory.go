package quota

import (
	"context"
	"sync"
)

// MemoryStore is a process-local store for the CLI and tests
type MemoryStore struct {
	mu     sync.Mutex
	quotas map[string]Quota
	runs   map[runKey]bool
}

type runKey struct {
	userID string
	runID  string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotas: make(map[string]Quota),
		runs:   make(map[runKey]bool),
	}
}

// Lookup returns the identity's quota
func (s *MemoryStore) Lookup(_ context.Context, userID string) (Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quotas[userID]
	if !ok {
		return Quota{}, ErrUserNotFound
	}
	return q, nil
}

// Consumed reports whether runID was already counted for the identity
func (s *MemoryStore) Consumed(_ context.Context, userID, runID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runs[runKey{userID: userID, runID: runID}], nil
}

// Increment counts runID once for the identity
func (s *MemoryStore) Increment(_ context.Context, userID, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quotas[userID]
	if !ok {
		return ErrUserNotFound
	}
	key := runKey{userID: userID, runID: runID}
	if s.runs[key] {
		return nil
	}
	s.runs[key] = true
	q.Used++
	s.quotas[userID] = q
	return nil
}

// Reset zeroes usage for every identity
func (s *MemoryStore) Reset(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, q := range s.quotas {
		q.Used = 0
		s.quotas[id] = q
	}
	return int64(len(s.quotas)), nil
}

// SetLimit sets the identity's limit, keeping its usage
func (s *MemoryStore) SetLimit(_ context.Context, userID string, limit int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.quotas[userID]
	q.Limit = limit
	s.quotas[userID] = q
	return nil
}
