package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-clinic-records/internal/domain/pets"
)

type PetRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
}

func NewPetRepo() *PetRepo {
	return &PetRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("pet already exists")
	}
	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return clonePet(p), nil
}

func (r *PetRepo) ListActive(ctx context.Context) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0, len(r.byID))
	for _, p := range r.byID {
		if p.Active {
			out = append(out, clonePet(p))
		}
	}

	// Orden estable por created_at asc, id como desempate.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *PetRepo) Update(ctx context.Context, id string, fn func(p *pets.Pet) error) (pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	next := clonePet(cur)
	if err := fn(&next); err != nil {
		return pets.Pet{}, err
	}
	next.ID = cur.ID
	r.byID[id] = clonePet(next)
	return next, nil
}

// snapshot para el reporte (join con vacunas).
func (r *PetRepo) activeByID() map[string]pets.Pet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]pets.Pet, len(r.byID))
	for id, p := range r.byID {
		if p.Active {
			out[id] = p
		}
	}
	return out
}

// Los punteros opcionales se copian para que nadie mute el estado del repo.
func clonePet(p pets.Pet) pets.Pet {
	if p.BirthDate != nil {
		d := *p.BirthDate
		p.BirthDate = &d
	}
	if p.Weight != nil {
		w := *p.Weight
		p.Weight = &w
	}
	return p
}
