package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"vet-clinic-records/internal/domain/clinical"
	"vet-clinic-records/internal/platform/dates"
)

const vaccinationColumns = `id, pet_id, vaccine_name, vaccine_type, dose_number,
	application_date, next_dose_date, veterinarian, batch_number,
	weight_at_vaccination, observations, created_at`

const controlColumns = `id, pet_id, product_name, product_type,
	application_date, next_application_date, dose, weight_at_application,
	veterinarian, observations, created_at`

// ClinicalRepo guarda vacunas y controles parasitarios.
// Las FK tienen ON DELETE CASCADE, pero las mascotas nunca se borran físicamente.
type ClinicalRepo struct {
	db DB
}

func NewClinicalRepo(db DB) *ClinicalRepo {
	return &ClinicalRepo{db: db}
}

// -------------------------
// Vacunas
// -------------------------

func (r *ClinicalRepo) CreateVaccination(ctx context.Context, v clinical.Vaccination) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO vaccinations (`+vaccinationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, vaccinationArgs(v)...)
	return err
}

func (r *ClinicalRepo) GetVaccination(ctx context.Context, id string) (clinical.Vaccination, error) {
	if !validID(id) {
		return clinical.Vaccination{}, clinical.ErrVaccinationNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+vaccinationColumns+` FROM vaccinations WHERE id = $1`, id)
	v, err := scanVaccination(row)
	if err != nil {
		return clinical.Vaccination{}, notFoundOr(err, clinical.ErrVaccinationNotFound)
	}
	return v, nil
}

func (r *ClinicalRepo) ListVaccinations(ctx context.Context, petID string) ([]clinical.Vaccination, error) {
	if !validID(petID) {
		return []clinical.Vaccination{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+vaccinationColumns+`
		FROM vaccinations
		WHERE pet_id = $1
		ORDER BY application_date DESC, created_at DESC, id DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]clinical.Vaccination, 0)
	for rows.Next() {
		v, err := scanVaccination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *ClinicalRepo) UpdateVaccination(ctx context.Context, id string, fn func(v *clinical.Vaccination) error) (clinical.Vaccination, error) {
	if !validID(id) {
		return clinical.Vaccination{}, clinical.ErrVaccinationNotFound
	}
	var out clinical.Vaccination
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+vaccinationColumns+` FROM vaccinations WHERE id = $1 FOR UPDATE`, id)
		cur, err := scanVaccination(row)
		if err != nil {
			return notFoundOr(err, clinical.ErrVaccinationNotFound)
		}

		next := cur
		if err := fn(&next); err != nil {
			return err
		}
		next.ID, next.PetID = cur.ID, cur.PetID

		_, err = tx.Exec(ctx, `
			UPDATE vaccinations
			SET
				vaccine_name = $3,
				vaccine_type = $4,
				dose_number = $5,
				application_date = $6,
				next_dose_date = $7,
				veterinarian = $8,
				batch_number = $9,
				weight_at_vaccination = $10,
				observations = $11
			WHERE id = $1 AND pet_id = $2
		`, vaccinationArgs(next)[:11]...)
		if err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return clinical.Vaccination{}, err
	}
	return out, nil
}

func (r *ClinicalRepo) DeleteVaccination(ctx context.Context, id string) error {
	if !validID(id) {
		return clinical.ErrVaccinationNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM vaccinations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return clinical.ErrVaccinationNotFound
	}
	return nil
}

func vaccinationArgs(v clinical.Vaccination) []any {
	return []any{
		v.ID,
		v.PetID,
		v.VaccineName,
		v.VaccineType,
		v.DoseNumber,
		v.ApplicationDate.Time(),
		v.NextDoseDate.TimePtr(),
		v.Veterinarian,
		v.BatchNumber,
		v.Weight,
		v.Observations,
		v.CreatedAt,
	}
}

func scanVaccination(s scanner) (clinical.Vaccination, error) {
	var (
		v       clinical.Vaccination
		applied time.Time
		next    *time.Time
	)
	if err := s.Scan(
		&v.ID,
		&v.PetID,
		&v.VaccineName,
		&v.VaccineType,
		&v.DoseNumber,
		&applied,
		&next,
		&v.Veterinarian,
		&v.BatchNumber,
		&v.Weight,
		&v.Observations,
		&v.CreatedAt,
	); err != nil {
		return clinical.Vaccination{}, err
	}
	v.ApplicationDate = dates.FromTime(applied)
	v.NextDoseDate = dates.FromTimePtr(next)
	return v, nil
}

// -------------------------
// Control parasitario
// -------------------------

func (r *ClinicalRepo) CreateParasiticControl(ctx context.Context, c clinical.ParasiticControl) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO parasitic_controls (`+controlColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, controlArgs(c)...)
	return err
}

func (r *ClinicalRepo) GetParasiticControl(ctx context.Context, id string) (clinical.ParasiticControl, error) {
	if !validID(id) {
		return clinical.ParasiticControl{}, clinical.ErrParasiticControlNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+controlColumns+` FROM parasitic_controls WHERE id = $1`, id)
	c, err := scanControl(row)
	if err != nil {
		return clinical.ParasiticControl{}, notFoundOr(err, clinical.ErrParasiticControlNotFound)
	}
	return c, nil
}

func (r *ClinicalRepo) ListParasiticControls(ctx context.Context, petID string) ([]clinical.ParasiticControl, error) {
	if !validID(petID) {
		return []clinical.ParasiticControl{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+controlColumns+`
		FROM parasitic_controls
		WHERE pet_id = $1
		ORDER BY application_date DESC, created_at DESC, id DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]clinical.ParasiticControl, 0)
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ClinicalRepo) UpdateParasiticControl(ctx context.Context, id string, fn func(c *clinical.ParasiticControl) error) (clinical.ParasiticControl, error) {
	if !validID(id) {
		return clinical.ParasiticControl{}, clinical.ErrParasiticControlNotFound
	}
	var out clinical.ParasiticControl
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+controlColumns+` FROM parasitic_controls WHERE id = $1 FOR UPDATE`, id)
		cur, err := scanControl(row)
		if err != nil {
			return notFoundOr(err, clinical.ErrParasiticControlNotFound)
		}

		next := cur
		if err := fn(&next); err != nil {
			return err
		}
		next.ID, next.PetID = cur.ID, cur.PetID

		_, err = tx.Exec(ctx, `
			UPDATE parasitic_controls
			SET
				product_name = $3,
				product_type = $4,
				application_date = $5,
				next_application_date = $6,
				dose = $7,
				weight_at_application = $8,
				veterinarian = $9,
				observations = $10
			WHERE id = $1 AND pet_id = $2
		`, controlArgs(next)[:10]...)
		if err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return clinical.ParasiticControl{}, err
	}
	return out, nil
}

func (r *ClinicalRepo) DeleteParasiticControl(ctx context.Context, id string) error {
	if !validID(id) {
		return clinical.ErrParasiticControlNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM parasitic_controls WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return clinical.ErrParasiticControlNotFound
	}
	return nil
}

func controlArgs(c clinical.ParasiticControl) []any {
	return []any{
		c.ID,
		c.PetID,
		c.ProductName,
		c.ProductType,
		c.ApplicationDate.Time(),
		c.NextApplicationDate.TimePtr(),
		c.Dose,
		c.Weight,
		c.Veterinarian,
		c.Observations,
		c.CreatedAt,
	}
}

func scanControl(s scanner) (clinical.ParasiticControl, error) {
	var (
		c       clinical.ParasiticControl
		applied time.Time
		next    *time.Time
	)
	if err := s.Scan(
		&c.ID,
		&c.PetID,
		&c.ProductName,
		&c.ProductType,
		&applied,
		&next,
		&c.Dose,
		&c.Weight,
		&c.Veterinarian,
		&c.Observations,
		&c.CreatedAt,
	); err != nil {
		return clinical.ParasiticControl{}, err
	}
	c.ApplicationDate = dates.FromTime(applied)
	c.NextApplicationDate = dates.FromTimePtr(next)
	return c, nil
}
