package pets

import (
	"context"

	"vet-clinic-records/internal/platform/apperr"
)

var ErrNotFound = apperr.NotFound("pet")

type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)

	// ListActive devuelve solo mascotas activas, ordenadas por created_at e id.
	ListActive(ctx context.Context) ([]Pet, error)

	// Update hace read-modify-write atómico sobre la fila.
	Update(ctx context.Context, id string, fn func(p *Pet) error) (Pet, error)
}
