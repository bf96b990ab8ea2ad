package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnnaArgentina/family-budget-bot/internal/dialogue"
)

// SessionStore implements dialogue.SessionStore using Redis.
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "session:",
	}
}

// Load returns the session stored under key, or nil.
func (s *SessionStore) Load(ctx context.Context, key string) (*dialogue.Session, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session dialogue.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}

	return &session, nil
}

// Save stores session with TTL.
func (s *SessionStore) Save(ctx context.Context, key string, session *dialogue.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}

	return s.client.Set(ctx, s.prefix+key, data, ttl).Err()
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
