package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const processingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore in process. It serves
// single-instance deployments that run without Redis.
type IdempotencyStore struct {
	cache *cache.Cache
}

// NewIdempotencyStore creates a store whose expired keys are swept every
// cleanupInterval.
func NewIdempotencyStore(cleanupInterval time.Duration) *IdempotencyStore {
	return &IdempotencyStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

// CheckAndSet atomically checks if key exists, sets if not.
func (s *IdempotencyStore) CheckAndSet(_ context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	value := response
	if value == nil {
		value = []byte(processingMarker)
	}

	if err := s.cache.Add(key, value, ttl); err != nil {
		existing, _ := s.cache.Get(key)
		data, _ := existing.([]byte)
		return true, data, nil
	}

	return false, nil, nil
}

// Update replaces the response stored under key.
func (s *IdempotencyStore) Update(_ context.Context, key string, response []byte, ttl time.Duration) error {
	s.cache.Set(key, response, ttl)
	return nil
}

// Release deletes key.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
