package clinical

import (
	"time"

	"vet-clinic-records/internal/platform/dates"
)

// Vaccination es una dosis aplicada a una mascota.
type Vaccination struct {
	ID    string
	PetID string

	VaccineName string
	VaccineType string // V8, V10, FELV...
	DoseNumber  *int

	ApplicationDate dates.Date
	NextDoseDate    *dates.Date

	Veterinarian string
	BatchNumber  string
	Weight       *float64 // peso al momento de la dosis
	Observations string

	CreatedAt time.Time
}

// ParasiticControl es una aplicación de antiparasitario (vermífugo, antipulgas...).
type ParasiticControl struct {
	ID    string
	PetID string

	ProductName string
	ProductType string

	ApplicationDate     dates.Date
	NextApplicationDate *dates.Date

	Dose         string
	Weight       *float64
	Veterinarian string
	Observations string

	CreatedAt time.Time
}
