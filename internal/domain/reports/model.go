package reports

import "vet-clinic-records/internal/platform/dates"

// DueDose es una vacuna cuya próxima dosis cae dentro de la ventana pedida.
type DueDose struct {
	PetID         string
	PetName       string
	VaccinationID string
	VaccineName   string
	NextDoseDate  dates.Date
	OwnerName     string
	OwnerPhone    string
}
