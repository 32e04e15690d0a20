package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-clinic-records/internal/domain/permissions"
	"vet-clinic-records/internal/platform/apperr"
	"vet-clinic-records/internal/platform/password"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", apperr.ErrUnauthenticated)

type Service struct {
	repo   Repository
	hasher *password.Hasher
	now    func() time.Time
}

func NewService(repo Repository, hasher *password.Hasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		now:    time.Now,
	}
}

type CreateInput struct {
	Username string
	Email    string
	Password string
	Role     string // "" => user
	Active   *bool  // nil => true

	// nil => permissions.DefaultSet()
	Capabilities map[permissions.Capability]bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" {
		return User{}, apperr.Invalid("username is required")
	}
	if email == "" {
		return User{}, apperr.Invalid("email is required")
	}
	if err := password.Validate(in.Password); err != nil {
		return User{}, apperr.Invalid("%s", err.Error())
	}

	role := permissions.RoleUser
	if strings.TrimSpace(in.Role) != "" {
		r, err := permissions.ParseRole(in.Role)
		if err != nil {
			return User{}, apperr.Invalid("%s", err.Error())
		}
		role = r
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	caps := permissions.DefaultSet()
	for c, on := range in.Capabilities {
		caps = caps.With(c, on)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
		Capabilities: caps,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

type UpdateInput struct {
	Username     *string
	Email        *string
	Role         *string
	Active       *bool
	Password     *string
	Capabilities map[permissions.Capability]bool
}

// Update aplica solo los campos presentes. Si vienen capacidades, el rol
// resultante tiene que ser user: las de un admin no se pueden fijar.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	var (
		newHash string
		role    *permissions.Role
	)

	if in.Username != nil && strings.TrimSpace(*in.Username) == "" {
		return User{}, apperr.Invalid("username cannot be empty")
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) == "" {
		return User{}, apperr.Invalid("email cannot be empty")
	}
	if in.Role != nil {
		r, err := permissions.ParseRole(*in.Role)
		if err != nil {
			return User{}, apperr.Invalid("%s", err.Error())
		}
		role = &r
	}
	if in.Password != nil {
		if err := password.Validate(*in.Password); err != nil {
			return User{}, apperr.Invalid("%s", err.Error())
		}
		h, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return User{}, fmt.Errorf("update user: %w", err)
		}
		newHash = h
	}

	return s.repo.Update(ctx, strings.TrimSpace(id), func(u *User) error {
		if in.Username != nil {
			u.Username = strings.TrimSpace(*in.Username)
		}
		if in.Email != nil {
			u.Email = strings.TrimSpace(*in.Email)
		}
		if role != nil {
			u.Role = *role
		}
		if in.Active != nil {
			u.Active = *in.Active
		}
		if newHash != "" {
			u.PasswordHash = newHash
		}
		if len(in.Capabilities) > 0 {
			if u.Role != permissions.RoleUser {
				return errAdminCapabilities
			}
			u.Capabilities = applyCapabilities(u.Capabilities, in.Capabilities)
		}
		return nil
	})
}

var errAdminCapabilities = apperr.Invalid("permissions can only be changed for users with role user")

// UpdateCapabilities rechaza objetivos admin: sus capacidades son implícitas.
func (s *Service) UpdateCapabilities(ctx context.Context, id string, caps map[permissions.Capability]bool) (User, error) {
	return s.repo.Update(ctx, strings.TrimSpace(id), func(u *User) error {
		if u.Role != permissions.RoleUser {
			return errAdminCapabilities
		}
		u.Capabilities = applyCapabilities(u.Capabilities, caps)
		return nil
	})
}

func applyCapabilities(current permissions.Set, changes map[permissions.Capability]bool) permissions.Set {
	next := current.Clone()
	for c, on := range changes {
		next = next.With(c, on)
	}
	return next
}

func (s *Service) SetPassword(ctx context.Context, id, plain string) error {
	if err := password.Validate(plain); err != nil {
		return apperr.Invalid("%s", err.Error())
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	_, err = s.repo.Update(ctx, id, func(u *User) error {
		u.PasswordHash = hash
		return nil
	})
	return err
}

func (s *Service) VerifyPassword(u User, plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return s.hasher.Verify(u.PasswordHash, plain)
}

// Delete: nadie puede borrar su propia cuenta.
func (s *Service) Delete(ctx context.Context, actingUserID, targetID string) error {
	targetID = strings.TrimSpace(targetID)
	if targetID == strings.TrimSpace(actingUserID) {
		return apperr.Forbidden("you cannot delete your own account")
	}
	return s.repo.Delete(ctx, targetID)
}

// Authenticate valida credenciales y registra last_login.
// Usuario inexistente, password incorrecta o cuenta inactiva dan el mismo error.
func (s *Service) Authenticate(ctx context.Context, username, plain string) (User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.hasher.VerifyMissing(plain)
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !s.VerifyPassword(u, plain) || !u.Active {
		return User{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	return s.repo.Update(ctx, u.ID, func(cur *User) error {
		cur.LastLogin = &now
		return nil
	})
}

// EnsureAdmin crea el primer administrador si no existe ningún usuario.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, plain string) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.Create(ctx, CreateInput{
		Username: username,
		Email:    email,
		Password: plain,
		Role:     string(permissions.RoleAdmin),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
