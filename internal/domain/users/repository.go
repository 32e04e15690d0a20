package users

import (
	"context"

	"vet-clinic-records/internal/platform/apperr"
)

var (
	ErrNotFound      = apperr.NotFound("user")
	ErrUsernameTaken = apperr.Conflict("username already exists")
	ErrEmailTaken    = apperr.Conflict("email already exists")
)

// Repository guarda usuarios. Las implementaciones garantizan unicidad de
// username y email (ErrUsernameTaken / ErrEmailTaken) en Create y Update.
type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)

	// Update hace read-modify-write atómico: fn recibe la fila bloqueada.
	// Si fn devuelve error no se escribe nada.
	Update(ctx context.Context, id string, fn func(u *User) error) (User, error)

	Delete(ctx context.Context, id string) error
}
