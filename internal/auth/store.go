package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/devcrafthub/client-portal/internal/session"
)

// SessionStore caches resolved sessions in Redis keyed by access
// token, so repeated requests skip the identity provider round trip.
type SessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewSessionStore creates a Redis-backed session cache.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if client == nil {
		panic("auth: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("devcraft.internal.auth.store"),
	}
}

// Save caches the session for the token's lifetime.
func (s *SessionStore) Save(ctx context.Context, token string, sess session.Session) error {
	ctx, span := s.tracer.Start(ctx, "auth.save_session")
	defer span.End()

	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("auth: marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(token), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("auth: persist session: %w", err)
	}
	return nil
}

// Load returns the cached session for a token. A miss reports found ==
// false, not an error.
func (s *SessionStore) Load(ctx context.Context, token string) (session.Session, bool, error) {
	ctx, span := s.tracer.Start(ctx, "auth.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return session.Anonymous(), false, nil
		}
		span.RecordError(err)
		return session.Anonymous(), false, fmt.Errorf("auth: load session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return session.Anonymous(), false, fmt.Errorf("auth: decode session: %w", err)
	}
	return sess, true, nil
}

// Delete drops a cached session, used on sign-out.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "auth.delete_session")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(token)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}
