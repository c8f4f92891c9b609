package memory

import (
	"context"
	"sync"

	"staybook/internal/app/middleware"
)

// IdempotencyStore stores command outcomes in memory. The first outcome
// saved for a key wins.
type IdempotencyStore struct {
	mu    sync.RWMutex
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[rec.Key]; exists {
		return nil
	}
	s.items[rec.Key] = rec
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
