package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vet-clinic-records/internal/domain/sessions"
)

const DefaultPrefix = "vetclinic:session:"

// SessionStore guarda cada sesión como JSON bajo prefix+hash, con TTL hasta ExpiresAt.
type SessionStore struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewSessionStore(rdb redis.Cmdable, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &SessionStore{rdb: rdb, prefix: prefix, now: time.Now}
}

type record struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *SessionStore) key(hash string) string { return s.prefix + hash }

func (s *SessionStore) Save(ctx context.Context, sess sessions.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return sessions.ErrExpired
	}

	b, err := json.Marshal(record{
		UserID:    sess.UserID,
		CreatedAt: sess.CreatedAt.UTC(),
		ExpiresAt: sess.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(sess.TokenHash), b, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, tokenHash string) (sessions.Session, error) {
	b, err := s.rdb.Get(ctx, s.key(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return sessions.Session{}, sessions.ErrNotFound
	}
	if err != nil {
		return sessions.Session{}, fmt.Errorf("load session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return sessions.Session{}, fmt.Errorf("decode session: %w", err)
	}

	sess := sessions.Session{
		TokenHash: tokenHash,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}
	// El TTL de Redis y el reloj propio pueden diferir unos ms.
	if sess.Expired(s.now()) {
		_ = s.rdb.Del(ctx, s.key(tokenHash)).Err()
		return sessions.Session{}, sessions.ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, tokenHash string) error {
	if err := s.rdb.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
