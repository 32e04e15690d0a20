package memory

import (
	"context"
	"sync"
	"time"

	"vet-clinic-records/internal/domain/sessions"
)

// SessionStore guarda sesiones en proceso (modo dev, sin Redis).
type SessionStore struct {
	mu     sync.Mutex
	byHash map[string]sessions.Session
	now    func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		byHash: make(map[string]sessions.Session),
		now:    time.Now,
	}
}

// WithClock alinea la expiración con el reloj del servicio de sesiones.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *SessionStore) Save(ctx context.Context, sess sessions.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.Expired(s.now()) {
		return sessions.ErrExpired
	}
	s.pruneLocked()
	s.byHash[sess.TokenHash] = sess
	return nil
}

func (s *SessionStore) Get(ctx context.Context, tokenHash string) (sessions.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byHash[tokenHash]
	if !ok {
		return sessions.Session{}, sessions.ErrNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.byHash, tokenHash)
		return sessions.Session{}, sessions.ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byHash, tokenHash)
	return nil
}

// Las expiradas se limpian al guardar una nueva.
func (s *SessionStore) pruneLocked() {
	now := s.now()
	for h, sess := range s.byHash {
		if sess.Expired(now) {
			delete(s.byHash, h)
		}
	}
}
