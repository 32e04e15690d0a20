package pets

import (
	"time"

	"vet-clinic-records/internal/platform/dates"
)

// Species define las especies soportadas. No hay otras.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

func (s Species) Valid() bool {
	return s == SpeciesDog || s == SpeciesCat
}

// Gender: M o F. Vacío = no informado.
// @Enum M, F
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

func (g Gender) Valid() bool {
	return g == "" || g == GenderMale || g == GenderFemale
}

// Pet es el perfil de una mascota atendida en la clínica.
// Active=false es el borrado lógico: sale del listado pero se puede consultar por id.
type Pet struct {
	ID string

	Name      string
	Species   Species
	Breed     string
	BirthDate *dates.Date
	Gender    Gender
	Weight    *float64 // kg

	// Datos de contacto del dueño, texto libre.
	OwnerName  string
	OwnerPhone string
	OwnerEmail string

	Active    bool
	CreatedAt time.Time
}
