// Package redis stores dashboard sessions in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

const defaultPrefix = "session:"

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = apperrors.NotFound("session not found")

// SessionStoreOptions configures a SessionStore.
type SessionStoreOptions struct {
	// Prefix is prepended to session ids; defaults to "session:".
	Prefix string
	// Now overrides the clock used for TTL computation.
	Now func() time.Time
}

// SessionStore keeps model.Session values as JSON with a TTL matching ExpiresAt.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ core.SessionRepository = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore.
func NewSessionStore(client redis.UniversalClient, opts SessionStoreOptions) *SessionStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionStore{client: client, prefix: prefix, now: now}
}

func (s *SessionStore) Save(ctx context.Context, sess model.Session) error {
	if sess.ID == "" {
		return apperrors.Validation("session id cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if sess.ExpiresAt.IsZero() || ttl <= 0 {
		return apperrors.Validation("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (model.Session, error) {
	if id == "" {
		return model.Session{}, ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("redis get session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return model.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}

	// Redis TTLs are lazy; a key can outlive ExpiresAt by a little.
	if sess.Expired(s.now()) {
		if err := s.Delete(ctx, id); err != nil {
			return model.Session{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return model.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}
