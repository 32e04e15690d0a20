package clinical

import (
	"context"

	"vet-clinic-records/internal/platform/apperr"
)

var (
	ErrVaccinationNotFound      = apperr.NotFound("vaccination")
	ErrParasiticControlNotFound = apperr.NotFound("parasitic control")
)

// Repository guarda la historia clínica. Los listados por mascota vienen
// ordenados por application_date descendente (created_at e id como desempate).
type Repository interface {
	CreateVaccination(ctx context.Context, v Vaccination) error
	GetVaccination(ctx context.Context, id string) (Vaccination, error)
	ListVaccinations(ctx context.Context, petID string) ([]Vaccination, error)
	UpdateVaccination(ctx context.Context, id string, fn func(v *Vaccination) error) (Vaccination, error)
	DeleteVaccination(ctx context.Context, id string) error

	CreateParasiticControl(ctx context.Context, c ParasiticControl) error
	GetParasiticControl(ctx context.Context, id string) (ParasiticControl, error)
	ListParasiticControls(ctx context.Context, petID string) ([]ParasiticControl, error)
	UpdateParasiticControl(ctx context.Context, id string, fn func(c *ParasiticControl) error) (ParasiticControl, error)
	DeleteParasiticControl(ctx context.Context, id string) error
}

// PetChecker valida que la mascota exista (activa o no).
// Evita el import de pets desde este paquete.
type PetChecker interface {
	Exists(ctx context.Context, petID string) error
}
