package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
)

// SessionStore implements usecase.SessionStore using Redis. Sessions are
// stored as JSON under a TTL that is refreshed on every save.
type SessionStore struct {
	client  *redis.Client
	prefix  string
	metrics *metrics.Metrics
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client *redis.Client, m *metrics.Metrics) *SessionStore {
	return &SessionStore{
		client:  client,
		prefix:  "orgconf:session:",
		metrics: m,
	}
}

// Create stores a new session. It fails if the ID is already taken.
func (s *SessionStore) Create(ctx context.Context, session *domain.SessionState, ttl time.Duration) (err error) {
	defer s.observe("session_create", time.Now(), &err)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(session.ID), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	return nil
}

// Get loads a session.
func (s *SessionStore) Get(ctx context.Context, id string) (_ *domain.SessionState, err error) {
	defer s.observe("session_get", time.Now(), &err)

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var session domain.SessionState
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &session, nil
}

// Save replaces a session if its stored revision equals expectedRevision.
// The read and write run under WATCH, so a write by another client between
// them also yields domain.ErrStaleSession.
func (s *SessionStore) Save(ctx context.Context, session *domain.SessionState, expectedRevision int64, ttl time.Duration) (err error) {
	defer s.observe("session_save", time.Now(), &err)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	key := s.key(session.ID)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, session.ID)
		}
		if err != nil {
			return err
		}

		var stored struct {
			Revision int64 `json:"revision"`
		}
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("unmarshal session %s: %w", session.ID, err)
		}
		if stored.Revision != expectedRevision {
			return fmt.Errorf("%w: expected revision %d, stored %d", domain.ErrStaleSession, expectedRevision, stored.Revision)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		return err
	}

	err = s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %s changed during save", domain.ErrStaleSession, session.ID)
	}
	return err
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) (err error) {
	defer s.observe("session_delete", time.Now(), &err)

	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}

func (s *SessionStore) observe(op string, start time.Time, errp *error) {
	if s.metrics == nil {
		return
	}

	s.metrics.RedisOperations.WithLabelValues(op).Inc()
	s.metrics.RedisDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	err := *errp
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) && !errors.Is(err, domain.ErrStaleSession) {
		s.metrics.RedisErrors.WithLabelValues(op).Inc()
	}
}
