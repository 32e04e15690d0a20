package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"vet-clinic-records/internal/domain/clinical"
	"vet-clinic-records/internal/domain/reports"
	"vet-clinic-records/internal/platform/dates"
)

type ClinicalRepo struct {
	mu           sync.RWMutex
	vaccinations map[string]clinical.Vaccination
	controls     map[string]clinical.ParasiticControl
}

func NewClinicalRepo() *ClinicalRepo {
	return &ClinicalRepo{
		vaccinations: make(map[string]clinical.Vaccination),
		controls:     make(map[string]clinical.ParasiticControl),
	}
}

// -------------------------
// Vacunas
// -------------------------

func (r *ClinicalRepo) CreateVaccination(ctx context.Context, v clinical.Vaccination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(v.ID) == "" {
		return errors.New("vaccination id required")
	}
	if _, exists := r.vaccinations[v.ID]; exists {
		return errors.New("vaccination already exists")
	}
	r.vaccinations[v.ID] = cloneVaccination(v)
	return nil
}

func (r *ClinicalRepo) GetVaccination(ctx context.Context, id string) (clinical.Vaccination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vaccinations[id]
	if !ok {
		return clinical.Vaccination{}, clinical.ErrVaccinationNotFound
	}
	return cloneVaccination(v), nil
}

func (r *ClinicalRepo) ListVaccinations(ctx context.Context, petID string) ([]clinical.Vaccination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]clinical.Vaccination, 0)
	for _, v := range r.vaccinations {
		if v.PetID == petID {
			out = append(out, cloneVaccination(v))
		}
	}
	clinical.SortVaccinations(out)
	return out, nil
}

func (r *ClinicalRepo) UpdateVaccination(ctx context.Context, id string, fn func(v *clinical.Vaccination) error) (clinical.Vaccination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.vaccinations[id]
	if !ok {
		return clinical.Vaccination{}, clinical.ErrVaccinationNotFound
	}
	next := cloneVaccination(cur)
	if err := fn(&next); err != nil {
		return clinical.Vaccination{}, err
	}
	next.ID, next.PetID = cur.ID, cur.PetID
	r.vaccinations[id] = cloneVaccination(next)
	return next, nil
}

func (r *ClinicalRepo) DeleteVaccination(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vaccinations[id]; !ok {
		return clinical.ErrVaccinationNotFound
	}
	delete(r.vaccinations, id)
	return nil
}

// -------------------------
// Control parasitario
// -------------------------

func (r *ClinicalRepo) CreateParasiticControl(ctx context.Context, c clinical.ParasiticControl) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("parasitic control id required")
	}
	if _, exists := r.controls[c.ID]; exists {
		return errors.New("parasitic control already exists")
	}
	r.controls[c.ID] = cloneControl(c)
	return nil
}

func (r *ClinicalRepo) GetParasiticControl(ctx context.Context, id string) (clinical.ParasiticControl, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.controls[id]
	if !ok {
		return clinical.ParasiticControl{}, clinical.ErrParasiticControlNotFound
	}
	return cloneControl(c), nil
}

func (r *ClinicalRepo) ListParasiticControls(ctx context.Context, petID string) ([]clinical.ParasiticControl, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]clinical.ParasiticControl, 0)
	for _, c := range r.controls {
		if c.PetID == petID {
			out = append(out, cloneControl(c))
		}
	}
	clinical.SortParasiticControls(out)
	return out, nil
}

func (r *ClinicalRepo) UpdateParasiticControl(ctx context.Context, id string, fn func(c *clinical.ParasiticControl) error) (clinical.ParasiticControl, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.controls[id]
	if !ok {
		return clinical.ParasiticControl{}, clinical.ErrParasiticControlNotFound
	}
	next := cloneControl(cur)
	if err := fn(&next); err != nil {
		return clinical.ParasiticControl{}, err
	}
	next.ID, next.PetID = cur.ID, cur.PetID
	r.controls[id] = cloneControl(next)
	return next, nil
}

func (r *ClinicalRepo) DeleteParasiticControl(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.controls[id]; !ok {
		return clinical.ErrParasiticControlNotFound
	}
	delete(r.controls, id)
	return nil
}

func cloneVaccination(v clinical.Vaccination) clinical.Vaccination {
	if v.DoseNumber != nil {
		n := *v.DoseNumber
		v.DoseNumber = &n
	}
	if v.NextDoseDate != nil {
		d := *v.NextDoseDate
		v.NextDoseDate = &d
	}
	if v.Weight != nil {
		w := *v.Weight
		v.Weight = &w
	}
	return v
}

func cloneControl(c clinical.ParasiticControl) clinical.ParasiticControl {
	if c.NextApplicationDate != nil {
		d := *c.NextApplicationDate
		c.NextApplicationDate = &d
	}
	if c.Weight != nil {
		w := *c.Weight
		c.Weight = &w
	}
	return c
}

// -------------------------
// Reporte
// -------------------------

// ReportRepo hace el join en memoria entre vacunas y mascotas activas.
type ReportRepo struct {
	pets     *PetRepo
	clinical *ClinicalRepo
}

func NewReportRepo(p *PetRepo, c *ClinicalRepo) *ReportRepo {
	return &ReportRepo{pets: p, clinical: c}
}

func (r *ReportRepo) UpcomingDoses(ctx context.Context, from, to dates.Date) ([]reports.DueDose, error) {
	active := r.pets.activeByID()

	r.clinical.mu.RLock()
	defer r.clinical.mu.RUnlock()

	out := make([]reports.DueDose, 0)
	for _, v := range r.clinical.vaccinations {
		if v.NextDoseDate == nil {
			continue
		}
		next := *v.NextDoseDate
		if next.Before(from) || next.After(to) {
			continue
		}
		p, ok := active[v.PetID]
		if !ok {
			continue
		}
		out = append(out, reports.DueDose{
			PetID:         p.ID,
			PetName:       p.Name,
			VaccinationID: v.ID,
			VaccineName:   v.VaccineName,
			NextDoseDate:  next,
			OwnerName:     p.OwnerName,
			OwnerPhone:    p.OwnerPhone,
		})
	}
	return out, nil
}
