package pets

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
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name       string
	Species    string
	Breed      string
	BirthDate  string // YYYY-MM-DD opcional
	Gender     string
	Weight     *float64
	OwnerName  string
	OwnerPhone string
	OwnerEmail string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Pet, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.Species) == "" {
		return Pet{}, apperr.Invalid("name and species are required")
	}
	species, err := parseSpecies(in.Species)
	if err != nil {
		return Pet{}, err
	}
	gender, err := parseGender(in.Gender)
	if err != nil {
		return Pet{}, err
	}
	if err := validateWeight(in.Weight); err != nil {
		return Pet{}, err
	}

	var bd *dates.Date
	if strings.TrimSpace(in.BirthDate) != "" {
		d, err := dates.Parse(in.BirthDate)
		if err != nil {
			return Pet{}, apperr.Invalid("birth_date must be YYYY-MM-DD")
		}
		bd = &d
	}

	p := Pet{
		ID:         uuid.NewString(),
		Name:       name,
		Species:    species,
		Breed:      strings.TrimSpace(in.Breed),
		BirthDate:  bd,
		Gender:     gender,
		Weight:     in.Weight,
		OwnerName:  strings.TrimSpace(in.OwnerName),
		OwnerPhone: strings.TrimSpace(in.OwnerPhone),
		OwnerEmail: strings.TrimSpace(in.OwnerEmail),
		Active:     true,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// GetByID no filtra por Active: una mascota dada de baja sigue consultable.
func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) ListActive(ctx context.Context) ([]Pet, error) {
	return s.repo.ListActive(ctx)
}

// Exists lo usan los módulos de historia clínica para validar el pet_id
// sin importar este paquete.
func (s *Service) Exists(ctx context.Context, id string) error {
	_, err := s.GetByID(ctx, id)
	return err
}

// UpdateInput: campo no enviado = no tocar. En los opcionales, null limpia.
type UpdateInput struct {
	Name       patch.Field[string]
	Species    patch.Field[string]
	Breed      patch.Field[string]
	BirthDate  patch.Field[string]
	Gender     patch.Field[string]
	Weight     patch.Field[float64]
	OwnerName  patch.Field[string]
	OwnerPhone patch.Field[string]
	OwnerEmail patch.Field[string]
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Pet, error) {
	// Validar todo antes de tocar la fila.
	if in.Name.Set && strings.TrimSpace(in.Name.Value) == "" {
		return Pet{}, apperr.Invalid("name cannot be empty")
	}

	var species Species
	if in.Species.Set {
		sp, err := parseSpecies(in.Species.Value)
		if err != nil {
			return Pet{}, err
		}
		species = sp
	}

	var gender Gender
	if in.Gender.Present() {
		g, err := parseGender(in.Gender.Value)
		if err != nil {
			return Pet{}, err
		}
		gender = g
	}

	if in.Weight.Present() {
		if err := validateWeight(&in.Weight.Value); err != nil {
			return Pet{}, err
		}
	}

	var bd *dates.Date
	if in.BirthDate.Present() && strings.TrimSpace(in.BirthDate.Value) != "" {
		d, err := dates.Parse(in.BirthDate.Value)
		if err != nil {
			return Pet{}, apperr.Invalid("birth_date must be YYYY-MM-DD")
		}
		bd = &d
	}

	return s.repo.Update(ctx, strings.TrimSpace(id), func(p *Pet) error {
		if in.Name.Set {
			p.Name = strings.TrimSpace(in.Name.Value)
		}
		if in.Species.Set {
			p.Species = species
		}
		if in.Breed.Set {
			p.Breed = strings.TrimSpace(in.Breed.Value)
		}
		if in.BirthDate.Set {
			p.BirthDate = bd
		}
		if in.Gender.Set {
			p.Gender = gender
		}
		if in.Weight.Set {
			p.Weight = in.Weight.Ptr()
		}
		if in.OwnerName.Set {
			p.OwnerName = strings.TrimSpace(in.OwnerName.Value)
		}
		if in.OwnerPhone.Set {
			p.OwnerPhone = strings.TrimSpace(in.OwnerPhone.Value)
		}
		if in.OwnerEmail.Set {
			p.OwnerEmail = strings.TrimSpace(in.OwnerEmail.Value)
		}
		return nil
	})
}

// SoftDelete marca active=false. Repetirlo no es error.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	_, err := s.repo.Update(ctx, strings.TrimSpace(id), func(p *Pet) error {
		p.Active = false
		return nil
	})
	return err
}

func parseSpecies(v string) (Species, error) {
	sp := Species(strings.TrimSpace(v))
	if !sp.Valid() {
		return "", apperr.Invalid(`species must be "dog" or "cat"`)
	}
	return sp, nil
}

func parseGender(v string) (Gender, error) {
	g := Gender(strings.TrimSpace(v))
	if !g.Valid() {
		return "", apperr.Invalid(`gender must be "M" or "F"`)
	}
	return g, nil
}

func validateWeight(w *float64) error {
	if w != nil && *w < 0 {
		return apperr.Invalid("weight cannot be negative")
	}
	return nil
}
