package reports

import (
	"net/http"
	"strconv"
	"strings"

	"vet-clinic-records/internal/platform/apperr"
	"vet-clinic-records/internal/platform/dates"
	"vet-clinic-records/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta los reportes. El router exige access_reports.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/reports/vaccination-schedule", vaccinationScheduleHandler(svc))
}

type dueDoseResponse struct {
	PetName       string     `json:"pet_name"`
	PetID         string     `json:"pet_id"`
	VaccinationID string     `json:"vaccination_id"`
	VaccineName   string     `json:"vaccine_name"`
	NextDoseDate  dates.Date `json:"next_dose_date" swaggertype:"string" format:"date"`
	OwnerName     *string    `json:"owner_name"`
	OwnerPhone    *string    `json:"owner_phone"`
}

// vaccinationScheduleHandler godoc
// @Summary Próximas dosis de vacunas
// @Description Vacunas con próxima dosis entre hoy y hoy+days (inclusive), solo mascotas activas. Requiere access_reports.
// @Tags reports
// @Produce json
// @Param days query int false "Ventana en días (1-365). Por defecto 30"
// @Success 200 {array} dueDoseResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /reports/vaccination-schedule [get]
func vaccinationScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := DefaultWindowDays
		if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				httpx.WriteError(w, r, apperr.Invalid("days must be an integer"))
				return
			}
			days = n
		}

		items, err := svc.UpcomingDoses(r.Context(), days)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := make([]dueDoseResponse, 0, len(items))
		for _, d := range items {
			out = append(out, dueDoseResponse{
				PetName:       d.PetName,
				PetID:         d.PetID,
				VaccinationID: d.VaccinationID,
				VaccineName:   d.VaccineName,
				NextDoseDate:  d.NextDoseDate,
				OwnerName:     optional(d.OwnerName),
				OwnerPhone:    optional(d.OwnerPhone),
			})
		}
		httpx.WriteJSON(w, r, http.StatusOK, out)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
