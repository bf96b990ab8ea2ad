package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/AnnaArgentina/family-budget-bot/internal/dialogue"
)

// SessionStore implements dialogue.SessionStore in process.
type SessionStore struct {
	cache *cache.Cache
}

// NewSessionStore creates a store whose expired sessions are swept every
// cleanupInterval.
func NewSessionStore(cleanupInterval time.Duration) *SessionStore {
	return &SessionStore{cache: cache.New(dialogue.DefaultSessionTTL, cleanupInterval)}
}

// Load returns a copy of the session stored under key, or nil.
func (s *SessionStore) Load(_ context.Context, key string) (*dialogue.Session, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, nil
	}

	session := v.(dialogue.Session)
	return &session, nil
}

// Save stores a copy of session with TTL.
func (s *SessionStore) Save(_ context.Context, key string, session *dialogue.Session, ttl time.Duration) error {
	s.cache.Set(key, *session, ttl)
	return nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
