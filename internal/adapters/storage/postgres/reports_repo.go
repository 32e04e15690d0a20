package postgres

import (
	"context"
	"time"

	"vet-clinic-records/internal/domain/reports"
	"vet-clinic-records/internal/platform/dates"
)

type ReportsRepo struct {
	db DB
}

func NewReportsRepo(db DB) *ReportsRepo {
	return &ReportsRepo{db: db}
}

func (r *ReportsRepo) UpcomingDoses(ctx context.Context, from, to dates.Date) ([]reports.DueDose, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			p.id, p.name,
			v.id, v.vaccine_name, v.next_dose_date,
			p.owner_name, p.owner_phone
		FROM vaccinations v
		JOIN pets p ON p.id = v.pet_id
		WHERE p.active
		  AND v.next_dose_date BETWEEN $1 AND $2
		ORDER BY v.next_dose_date, p.id, v.id
	`, from.Time(), to.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reports.DueDose, 0)
	for rows.Next() {
		var (
			d    reports.DueDose
			next time.Time
		)
		if err := rows.Scan(
			&d.PetID,
			&d.PetName,
			&d.VaccinationID,
			&d.VaccineName,
			&next,
			&d.OwnerName,
			&d.OwnerPhone,
		); err != nil {
			return nil, err
		}
		d.NextDoseDate = dates.FromTime(next)
		out = append(out, d)
	}
	return out, rows.Err()
}
