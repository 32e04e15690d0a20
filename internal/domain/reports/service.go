package reports

import (
	"context"
	"sort"
	"time"

	"vet-clinic-records/internal/platform/apperr"
	"vet-clinic-records/internal/platform/dates"
)

const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// UpcomingDoses cubre [hoy, hoy+windowDays]. El orden es determinista:
// fecha, luego pet id, luego id de la vacuna.
func (s *Service) UpcomingDoses(ctx context.Context, windowDays int) ([]DueDose, error) {
	if windowDays < 1 || windowDays > MaxWindowDays {
		return nil, apperr.Invalid("days must be between 1 and %d", MaxWindowDays)
	}

	today := dates.Of(s.now())
	items, err := s.repo.UpcomingDoses(ctx, today, today.AddDays(windowDays))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if c := a.NextDoseDate.Compare(b.NextDoseDate); c != 0 {
			return c < 0
		}
		if a.PetID != b.PetID {
			return a.PetID < b.PetID
		}
		return a.VaccinationID < b.VaccinationID
	})
	return items, nil
}

// WithClock fija el reloj (el "hoy" del reporte).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}
