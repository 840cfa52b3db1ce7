package memory

import (
	"context"
	"sync"
	"time"

	"alxtravel/internal/app/middleware"
)

// IdempotencyStore stores results in memory. Records older than ttl are treated as absent.
type IdempotencyStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	if !ok || s.expired(rec) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[rec.Key]; ok && !s.expired(existing) {
		return middleware.ErrIdempotencyKeyTaken
	}
	s.items[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	return s.ttl > 0 && time.Since(rec.OccurredAt) > s.ttl
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
