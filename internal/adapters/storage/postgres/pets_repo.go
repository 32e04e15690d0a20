package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"vet-clinic-records/internal/domain/pets"
	"vet-clinic-records/internal/platform/dates"
)

const petColumns = `id, name, species, breed, birth_date, gender, weight,
	owner_name, owner_phone, owner_email, active, created_at`

type PetsRepo struct {
	db DB
}

func NewPetsRepo(db DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		p.ID,
		p.Name,
		string(p.Species),
		p.Breed,
		p.BirthDate.TimePtr(),
		string(p.Gender),
		p.Weight,
		p.OwnerName,
		p.OwnerPhone,
		p.OwnerEmail,
		p.Active,
		p.CreatedAt,
	)
	return err
}

// GetByID no filtra por active: las mascotas dadas de baja siguen consultables.
func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	if !validID(id) {
		return pets.Pet{}, pets.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if err != nil {
		return pets.Pet{}, notFoundOr(err, pets.ErrNotFound)
	}
	return p, nil
}

func (r *PetsRepo) ListActive(ctx context.Context) ([]pets.Pet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE active
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) Update(ctx context.Context, id string, fn func(p *pets.Pet) error) (pets.Pet, error) {
	if !validID(id) {
		return pets.Pet{}, pets.ErrNotFound
	}
	var out pets.Pet
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1 FOR UPDATE`, id)
		cur, err := scanPet(row)
		if err != nil {
			return notFoundOr(err, pets.ErrNotFound)
		}

		next := cur
		if err := fn(&next); err != nil {
			return err
		}
		next.ID = cur.ID

		_, err = tx.Exec(ctx, `
			UPDATE pets
			SET
				name = $2,
				species = $3,
				breed = $4,
				birth_date = $5,
				gender = $6,
				weight = $7,
				owner_name = $8,
				owner_phone = $9,
				owner_email = $10,
				active = $11
			WHERE id = $1
		`,
			next.ID,
			next.Name,
			string(next.Species),
			next.Breed,
			next.BirthDate.TimePtr(),
			string(next.Gender),
			next.Weight,
			next.OwnerName,
			next.OwnerPhone,
			next.OwnerEmail,
			next.Active,
		)
		if err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return pets.Pet{}, err
	}
	return out, nil
}

func scanPet(s scanner) (pets.Pet, error) {
	var (
		p         pets.Pet
		species   string
		gender    string
		birthDate *time.Time
	)
	if err := s.Scan(
		&p.ID,
		&p.Name,
		&species,
		&p.Breed,
		&birthDate,
		&gender,
		&p.Weight,
		&p.OwnerName,
		&p.OwnerPhone,
		&p.OwnerEmail,
		&p.Active,
		&p.CreatedAt,
	); err != nil {
		return pets.Pet{}, err
	}
	p.Species = pets.Species(species)
	p.Gender = pets.Gender(gender)
	p.BirthDate = dates.FromTimePtr(birthDate)
	return p, nil
}
