package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-clinic-records/internal/domain/permissions"
	"vet-clinic-records/internal/domain/users"
	"vet-clinic-records/internal/platform/apperr"
	"vet-clinic-records/internal/platform/password"
)

var errNoSession = fmt.Errorf("%w: not authenticated", apperr.ErrUnauthenticated)

// Users es lo que la autoridad de sesión necesita del almacén de credenciales.
type Users interface {
	Authenticate(ctx context.Context, username, plain string) (users.User, error)
	Get(ctx context.Context, id string) (users.User, error)
	VerifyPassword(u users.User, plain string) bool
	SetPassword(ctx context.Context, id, plain string) error
}

type Service struct {
	store Store
	users Users
	ttl   time.Duration
	now   func() time.Time
}

func NewService(store Store, u Users, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		store: store,
		users: u,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Login valida credenciales y crea la sesión. Devuelve el token en claro
// (solo viaja al cliente) y el usuario con last_login actualizado.
func (s *Service) Login(ctx context.Context, username, plain string) (string, users.User, error) {
	if strings.TrimSpace(username) == "" || plain == "" {
		return "", users.User{}, apperr.Invalid("username and password are required")
	}

	u, err := s.users.Authenticate(ctx, username, plain)
	if err != nil {
		return "", users.User{}, err
	}

	token, err := newToken()
	if err != nil {
		return "", users.User{}, err
	}
	now := s.now().UTC()
	err = s.store.Save(ctx, Session{
		TokenHash: HashToken(token),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		return "", users.User{}, fmt.Errorf("save session: %w", err)
	}
	return token, u, nil
}

// Resolve devuelve el usuario de la sesión. Si el usuario ya no existe o está
// inactivo, la sesión se invalida.
func (s *Service) Resolve(ctx context.Context, token string) (users.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return users.User{}, errNoSession
	}
	hash := HashToken(token)

	sess, err := s.store.Get(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return users.User{}, errNoSession
		}
		return users.User{}, fmt.Errorf("get session: %w", err)
	}
	if sess.Expired(s.now()) {
		_ = s.store.Delete(ctx, hash)
		return users.User{}, errNoSession
	}

	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = s.store.Delete(ctx, hash)
			return users.User{}, errNoSession
		}
		return users.User{}, err
	}
	if !u.Active {
		_ = s.store.Delete(ctx, hash)
		return users.User{}, errNoSession
	}
	return u, nil
}

// ResolvePrincipal es lo que consume el middleware de auth.
func (s *Service) ResolvePrincipal(ctx context.Context, token string) (permissions.Principal, error) {
	u, err := s.Resolve(ctx, token)
	if err != nil {
		return permissions.Principal{}, err
	}
	return u.Principal(), nil
}

// Logout siempre termina bien salvo error del store: una sesión inexistente ya está cerrada.
func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, HashToken(token))
}

// Current devuelve el usuario de una sesión ya resuelta por AuthContext.
func (s *Service) Current(ctx context.Context, userID string) (users.User, error) {
	if strings.TrimSpace(userID) == "" {
		return users.User{}, errNoSession
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return users.User{}, errNoSession
		}
		return users.User{}, err
	}
	if !u.Active {
		return users.User{}, errNoSession
	}
	return u, nil
}

// ChangePassword: una contraseña actual incorrecta deja la anterior vigente.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.Current(ctx, userID)
	if err != nil {
		return err
	}
	if current == "" || next == "" {
		return apperr.Invalid("current_password and new_password are required")
	}
	if err := password.Validate(next); err != nil {
		return apperr.Invalid("new password must be at least %d characters", password.MinLength)
	}
	if !s.users.VerifyPassword(u, current) {
		return apperr.Invalid("current password is incorrect")
	}
	return s.users.SetPassword(ctx, u.ID, next)
}
