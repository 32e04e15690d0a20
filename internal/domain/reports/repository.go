package reports

import (
	"context"

	"vet-clinic-records/internal/platform/dates"
)

// Repository resuelve el join vacunas x mascotas activas.
type Repository interface {
	// UpcomingDoses devuelve vacunas con next_dose_date en [from, to] (ambos inclusive)
	// de mascotas con active=true.
	UpcomingDoses(ctx context.Context, from, to dates.Date) ([]DueDose, error)
}
