package clinical

import (
	"context"
	"strings"
	"time"

	"vet-clinic-records/internal/platform/apperr"
	"vet-clinic-records/internal/platform/dates"
	"vet-clinic-records/internal/platform/patch"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	pets PetChecker
	now  func() time.Time
}

func NewService(repo Repository, pets PetChecker) *Service {
	return &Service{
		repo: repo,
		pets: pets,
		now:  time.Now,
	}
}

// -------------------------
// Vacunas
// -------------------------

type VaccinationInput struct {
	VaccineName     string
	VaccineType     string
	DoseNumber      *int
	ApplicationDate string
	NextDoseDate    string
	Veterinarian    string
	BatchNumber     string
	Weight          *float64
	Observations    string
}

func (s *Service) AddVaccination(ctx context.Context, petID string, in VaccinationInput) (Vaccination, error) {
	petID = strings.TrimSpace(petID)
	if err := s.pets.Exists(ctx, petID); err != nil {
		return Vaccination{}, err
	}

	name := strings.TrimSpace(in.VaccineName)
	if name == "" || strings.TrimSpace(in.ApplicationDate) == "" {
		return Vaccination{}, apperr.Invalid("vaccine_name and application_date are required")
	}
	applied, err := parseDate("application_date", in.ApplicationDate)
	if err != nil {
		return Vaccination{}, err
	}
	next, err := parseOptionalDate("next_dose_date", in.NextDoseDate)
	if err != nil {
		return Vaccination{}, err
	}
	if err := validateDose(in.DoseNumber); err != nil {
		return Vaccination{}, err
	}
	if err := validateWeight(in.Weight); err != nil {
		return Vaccination{}, err
	}

	v := Vaccination{
		ID:              uuid.NewString(),
		PetID:           petID,
		VaccineName:     name,
		VaccineType:     strings.TrimSpace(in.VaccineType),
		DoseNumber:      in.DoseNumber,
		ApplicationDate: applied,
		NextDoseDate:    next,
		Veterinarian:    strings.TrimSpace(in.Veterinarian),
		BatchNumber:     strings.TrimSpace(in.BatchNumber),
		Weight:          in.Weight,
		Observations:    strings.TrimSpace(in.Observations),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.CreateVaccination(ctx, v); err != nil {
		return Vaccination{}, err
	}
	return v, nil
}

func (s *Service) ListVaccinations(ctx context.Context, petID string) ([]Vaccination, error) {
	petID = strings.TrimSpace(petID)
	if err := s.pets.Exists(ctx, petID); err != nil {
		return nil, err
	}
	return s.repo.ListVaccinations(ctx, petID)
}

type VaccinationPatch struct {
	VaccineName     patch.Field[string]
	VaccineType     patch.Field[string]
	DoseNumber      patch.Field[int]
	ApplicationDate patch.Field[string]
	NextDoseDate    patch.Field[string]
	Veterinarian    patch.Field[string]
	BatchNumber     patch.Field[string]
	Weight          patch.Field[float64]
	Observations    patch.Field[string]
}

func (s *Service) UpdateVaccination(ctx context.Context, id string, in VaccinationPatch) (Vaccination, error) {
	if in.VaccineName.Set && strings.TrimSpace(in.VaccineName.Value) == "" {
		return Vaccination{}, apperr.Invalid("vaccine_name cannot be empty")
	}

	var applied dates.Date
	if in.ApplicationDate.Set {
		d, err := parseDate("application_date", in.ApplicationDate.Value)
		if err != nil {
			return Vaccination{}, err
		}
		applied = d
	}

	var next *dates.Date
	if in.NextDoseDate.Present() {
		d, err := parseOptionalDate("next_dose_date", in.NextDoseDate.Value)
		if err != nil {
			return Vaccination{}, err
		}
		next = d
	}

	if in.DoseNumber.Present() {
		if err := validateDose(&in.DoseNumber.Value); err != nil {
			return Vaccination{}, err
		}
	}
	if in.Weight.Present() {
		if err := validateWeight(&in.Weight.Value); err != nil {
			return Vaccination{}, err
		}
	}

	return s.repo.UpdateVaccination(ctx, strings.TrimSpace(id), func(v *Vaccination) error {
		if in.VaccineName.Set {
			v.VaccineName = strings.TrimSpace(in.VaccineName.Value)
		}
		if in.VaccineType.Set {
			v.VaccineType = strings.TrimSpace(in.VaccineType.Value)
		}
		if in.DoseNumber.Set {
			v.DoseNumber = in.DoseNumber.Ptr()
		}
		if in.ApplicationDate.Set {
			v.ApplicationDate = applied
		}
		if in.NextDoseDate.Set {
			v.NextDoseDate = next
		}
		if in.Veterinarian.Set {
			v.Veterinarian = strings.TrimSpace(in.Veterinarian.Value)
		}
		if in.BatchNumber.Set {
			v.BatchNumber = strings.TrimSpace(in.BatchNumber.Value)
		}
		if in.Weight.Set {
			v.Weight = in.Weight.Ptr()
		}
		if in.Observations.Set {
			v.Observations = strings.TrimSpace(in.Observations.Value)
		}
		return nil
	})
}

func (s *Service) DeleteVaccination(ctx context.Context, id string) error {
	return s.repo.DeleteVaccination(ctx, strings.TrimSpace(id))
}

// -------------------------
// Control parasitario
// -------------------------

type ParasiticControlInput struct {
	ProductName         string
	ProductType         string
	ApplicationDate     string
	NextApplicationDate string
	Dose                string
	Weight              *float64
	Veterinarian        string
	Observations        string
}

func (s *Service) AddParasiticControl(ctx context.Context, petID string, in ParasiticControlInput) (ParasiticControl, error) {
	petID = strings.TrimSpace(petID)
	if err := s.pets.Exists(ctx, petID); err != nil {
		return ParasiticControl{}, err
	}

	name := strings.TrimSpace(in.ProductName)
	if name == "" || strings.TrimSpace(in.ApplicationDate) == "" {
		return ParasiticControl{}, apperr.Invalid("product_name and application_date are required")
	}
	applied, err := parseDate("application_date", in.ApplicationDate)
	if err != nil {
		return ParasiticControl{}, err
	}
	next, err := parseOptionalDate("next_application_date", in.NextApplicationDate)
	if err != nil {
		return ParasiticControl{}, err
	}
	if err := validateWeight(in.Weight); err != nil {
		return ParasiticControl{}, err
	}

	c := ParasiticControl{
		ID:                  uuid.NewString(),
		PetID:               petID,
		ProductName:         name,
		ProductType:         strings.TrimSpace(in.ProductType),
		ApplicationDate:     applied,
		NextApplicationDate: next,
		Dose:                strings.TrimSpace(in.Dose),
		Weight:              in.Weight,
		Veterinarian:        strings.TrimSpace(in.Veterinarian),
		Observations:        strings.TrimSpace(in.Observations),
		CreatedAt:           s.now().UTC(),
	}
	if err := s.repo.CreateParasiticControl(ctx, c); err != nil {
		return ParasiticControl{}, err
	}
	return c, nil
}

func (s *Service) ListParasiticControls(ctx context.Context, petID string) ([]ParasiticControl, error) {
	petID = strings.TrimSpace(petID)
	if err := s.pets.Exists(ctx, petID); err != nil {
		return nil, err
	}
	return s.repo.ListParasiticControls(ctx, petID)
}

type ParasiticControlPatch struct {
	ProductName         patch.Field[string]
	ProductType         patch.Field[string]
	ApplicationDate     patch.Field[string]
	NextApplicationDate patch.Field[string]
	Dose                patch.Field[string]
	Weight              patch.Field[float64]
	Veterinarian        patch.Field[string]
	Observations        patch.Field[string]
}

func (s *Service) UpdateParasiticControl(ctx context.Context, id string, in ParasiticControlPatch) (ParasiticControl, error) {
	if in.ProductName.Set && strings.TrimSpace(in.ProductName.Value) == "" {
		return ParasiticControl{}, apperr.Invalid("product_name cannot be empty")
	}

	var applied dates.Date
	if in.ApplicationDate.Set {
		d, err := parseDate("application_date", in.ApplicationDate.Value)
		if err != nil {
			return ParasiticControl{}, err
		}
		applied = d
	}

	var next *dates.Date
	if in.NextApplicationDate.Present() {
		d, err := parseOptionalDate("next_application_date", in.NextApplicationDate.Value)
		if err != nil {
			return ParasiticControl{}, err
		}
		next = d
	}

	if in.Weight.Present() {
		if err := validateWeight(&in.Weight.Value); err != nil {
			return ParasiticControl{}, err
		}
	}

	return s.repo.UpdateParasiticControl(ctx, strings.TrimSpace(id), func(c *ParasiticControl) error {
		if in.ProductName.Set {
			c.ProductName = strings.TrimSpace(in.ProductName.Value)
		}
		if in.ProductType.Set {
			c.ProductType = strings.TrimSpace(in.ProductType.Value)
		}
		if in.ApplicationDate.Set {
			c.ApplicationDate = applied
		}
		if in.NextApplicationDate.Set {
			c.NextApplicationDate = next
		}
		if in.Dose.Set {
			c.Dose = strings.TrimSpace(in.Dose.Value)
		}
		if in.Weight.Set {
			c.Weight = in.Weight.Ptr()
		}
		if in.Veterinarian.Set {
			c.Veterinarian = strings.TrimSpace(in.Veterinarian.Value)
		}
		if in.Observations.Set {
			c.Observations = strings.TrimSpace(in.Observations.Value)
		}
		return nil
	})
}

func (s *Service) DeleteParasiticControl(ctx context.Context, id string) error {
	return s.repo.DeleteParasiticControl(ctx, strings.TrimSpace(id))
}

// History junta ambas listas; lo usa el detalle de mascota.
func (s *Service) History(ctx context.Context, petID string) ([]Vaccination, []ParasiticControl, error) {
	vs, err := s.repo.ListVaccinations(ctx, petID)
	if err != nil {
		return nil, nil, err
	}
	cs, err := s.repo.ListParasiticControls(ctx, petID)
	if err != nil {
		return nil, nil, err
	}
	return vs, cs, nil
}

func parseDate(field, v string) (dates.Date, error) {
	d, err := dates.Parse(v)
	if err != nil {
		return dates.Date{}, apperr.Invalid("%s must be YYYY-MM-DD", field)
	}
	return d, nil
}

// "" => sin fecha.
func parseOptionalDate(field, v string) (*dates.Date, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := parseDate(field, v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func validateDose(n *int) error {
	if n != nil && *n < 1 {
		return apperr.Invalid("dose_number must be >= 1")
	}
	return nil
}

func validateWeight(w *float64) error {
	if w != nil && *w < 0 {
		return apperr.Invalid("weight cannot be negative")
	}
	return nil
}
