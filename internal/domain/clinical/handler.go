package clinical

import (
	"net/http"
	"time"

	"vet-clinic-records/internal/platform/dates"
	"vet-clinic-records/internal/platform/httpx"
	"vet-clinic-records/internal/platform/patch"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta vacunas y control parasitario. El router exige access_vaccination.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/pets/{petID}/vaccinations", listVaccinationsHandler(svc))
	r.Post("/pets/{petID}/vaccinations", createVaccinationHandler(svc))
	r.Put("/vaccinations/{vaccinationID}", updateVaccinationHandler(svc))
	r.Delete("/vaccinations/{vaccinationID}", deleteVaccinationHandler(svc))

	r.Get("/pets/{petID}/parasitic-controls", listParasiticControlsHandler(svc))
	r.Post("/pets/{petID}/parasitic-controls", createParasiticControlHandler(svc))
	r.Put("/parasitic-controls/{controlID}", updateParasiticControlHandler(svc))
	r.Delete("/parasitic-controls/{controlID}", deleteParasiticControlHandler(svc))
}

type VaccinationResponse struct {
	ID                  string      `json:"id"`
	PetID               string      `json:"pet_id"`
	VaccineName         string      `json:"vaccine_name"`
	VaccineType         string      `json:"vaccine_type"`
	DoseNumber          *int        `json:"dose_number"`
	ApplicationDate     dates.Date  `json:"application_date" swaggertype:"string" format:"date"`
	NextDoseDate        *dates.Date `json:"next_dose_date" swaggertype:"string" format:"date"`
	Veterinarian        string      `json:"veterinarian"`
	BatchNumber         string      `json:"batch_number"`
	WeightAtVaccination *float64    `json:"weight_at_vaccination"`
	Observations        string      `json:"observations"`
	CreatedAt           time.Time   `json:"created_at"`
}

type ParasiticControlResponse struct {
	ID                  string      `json:"id"`
	PetID               string      `json:"pet_id"`
	ProductName         string      `json:"product_name"`
	ProductType         string      `json:"product_type"`
	ApplicationDate     dates.Date  `json:"application_date" swaggertype:"string" format:"date"`
	NextApplicationDate *dates.Date `json:"next_application_date" swaggertype:"string" format:"date"`
	Dose                string      `json:"dose"`
	WeightAtApplication *float64    `json:"weight_at_application"`
	Veterinarian        string      `json:"veterinarian"`
	Observations        string      `json:"observations"`
	CreatedAt           time.Time   `json:"created_at"`
}

func ToVaccinationResponse(v Vaccination) VaccinationResponse {
	return VaccinationResponse{
		ID:                  v.ID,
		PetID:               v.PetID,
		VaccineName:         v.VaccineName,
		VaccineType:         v.VaccineType,
		DoseNumber:          v.DoseNumber,
		ApplicationDate:     v.ApplicationDate,
		NextDoseDate:        v.NextDoseDate,
		Veterinarian:        v.Veterinarian,
		BatchNumber:         v.BatchNumber,
		WeightAtVaccination: v.Weight,
		Observations:        v.Observations,
		CreatedAt:           v.CreatedAt,
	}
}

func ToParasiticControlResponse(c ParasiticControl) ParasiticControlResponse {
	return ParasiticControlResponse{
		ID:                  c.ID,
		PetID:               c.PetID,
		ProductName:         c.ProductName,
		ProductType:         c.ProductType,
		ApplicationDate:     c.ApplicationDate,
		NextApplicationDate: c.NextApplicationDate,
		Dose:                c.Dose,
		WeightAtApplication: c.Weight,
		Veterinarian:        c.Veterinarian,
		Observations:        c.Observations,
		CreatedAt:           c.CreatedAt,
	}
}

func ToVaccinationResponses(items []Vaccination) []VaccinationResponse {
	out := make([]VaccinationResponse, 0, len(items))
	for _, v := range items {
		out = append(out, ToVaccinationResponse(v))
	}
	return out
}

func ToParasiticControlResponses(items []ParasiticControl) []ParasiticControlResponse {
	out := make([]ParasiticControlResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ToParasiticControlResponse(c))
	}
	return out
}

// Las fechas llegan como string y las valida el servicio, así el error
// dice qué campo está mal en vez de un error genérico de JSON.
type createVaccinationRequest struct {
	VaccineName         string   `json:"vaccine_name"`
	VaccineType         string   `json:"vaccine_type"`
	DoseNumber          *int     `json:"dose_number"`
	ApplicationDate     string   `json:"application_date"`
	NextDoseDate        string   `json:"next_dose_date"`
	Veterinarian        string   `json:"veterinarian"`
	BatchNumber         string   `json:"batch_number"`
	WeightAtVaccination *float64 `json:"weight_at_vaccination"`
	Observations        string   `json:"observations"`
}

type updateVaccinationRequest struct {
	VaccineName         patch.Field[string]  `json:"vaccine_name" swaggertype:"string"`
	VaccineType         patch.Field[string]  `json:"vaccine_type" swaggertype:"string"`
	DoseNumber          patch.Field[int]     `json:"dose_number" swaggertype:"integer"`
	ApplicationDate     patch.Field[string]  `json:"application_date" swaggertype:"string"`
	NextDoseDate        patch.Field[string]  `json:"next_dose_date" swaggertype:"string"`
	Veterinarian        patch.Field[string]  `json:"veterinarian" swaggertype:"string"`
	BatchNumber         patch.Field[string]  `json:"batch_number" swaggertype:"string"`
	WeightAtVaccination patch.Field[float64] `json:"weight_at_vaccination" swaggertype:"number"`
	Observations        patch.Field[string]  `json:"observations" swaggertype:"string"`
}

type createParasiticControlRequest struct {
	ProductName         string   `json:"product_name"`
	ProductType         string   `json:"product_type"`
	ApplicationDate     string   `json:"application_date"`
	NextApplicationDate string   `json:"next_application_date"`
	Dose                string   `json:"dose"`
	WeightAtApplication *float64 `json:"weight_at_application"`
	Veterinarian        string   `json:"veterinarian"`
	Observations        string   `json:"observations"`
}

type updateParasiticControlRequest struct {
	ProductName         patch.Field[string]  `json:"product_name" swaggertype:"string"`
	ProductType         patch.Field[string]  `json:"product_type" swaggertype:"string"`
	ApplicationDate     patch.Field[string]  `json:"application_date" swaggertype:"string"`
	NextApplicationDate patch.Field[string]  `json:"next_application_date" swaggertype:"string"`
	Dose                patch.Field[string]  `json:"dose" swaggertype:"string"`
	WeightAtApplication patch.Field[float64] `json:"weight_at_application" swaggertype:"number"`
	Veterinarian        patch.Field[string]  `json:"veterinarian" swaggertype:"string"`
	Observations        patch.Field[string]  `json:"observations" swaggertype:"string"`
}

// listVaccinationsHandler godoc
// @Summary Listar vacunas de una mascota
// @Description Historial de vacunación ordenado por fecha de aplicación, la más reciente primero. Requiere access_vaccination.
// @Tags vaccinations
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} VaccinationResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID}/vaccinations [get]
func listVaccinationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListVaccinations(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusOK, ToVaccinationResponses(items))
	}
}

// createVaccinationHandler godoc
// @Summary Registrar vacuna
// @Description vaccine_name y application_date (YYYY-MM-DD) son obligatorios. next_dose_date es opcional.
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createVaccinationRequest true "Datos de la vacuna"
// @Success 201 {object} VaccinationResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID}/vaccinations [post]
func createVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createVaccinationRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		v, err := svc.AddVaccination(r.Context(), chi.URLParam(r, "petID"), VaccinationInput{
			VaccineName:     req.VaccineName,
			VaccineType:     req.VaccineType,
			DoseNumber:      req.DoseNumber,
			ApplicationDate: req.ApplicationDate,
			NextDoseDate:    req.NextDoseDate,
			Veterinarian:    req.Veterinarian,
			BatchNumber:     req.BatchNumber,
			Weight:          req.WeightAtVaccination,
			Observations:    req.Observations,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusCreated, ToVaccinationResponse(v))
	}
}

// updateVaccinationHandler godoc
// @Summary Actualizar vacuna
// @Description Actualización parcial. La mascota asociada no cambia.
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param vaccinationID path string true "ID de la vacuna"
// @Param payload body updateVaccinationRequest true "Campos a modificar"
// @Success 200 {object} VaccinationResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse "vaccination not found"
// @Router /vaccinations/{vaccinationID} [put]
func updateVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateVaccinationRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		v, err := svc.UpdateVaccination(r.Context(), chi.URLParam(r, "vaccinationID"), VaccinationPatch{
			VaccineName:     req.VaccineName,
			VaccineType:     req.VaccineType,
			DoseNumber:      req.DoseNumber,
			ApplicationDate: req.ApplicationDate,
			NextDoseDate:    req.NextDoseDate,
			Veterinarian:    req.Veterinarian,
			BatchNumber:     req.BatchNumber,
			Weight:          req.WeightAtVaccination,
			Observations:    req.Observations,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusOK, ToVaccinationResponse(v))
	}
}

// deleteVaccinationHandler godoc
// @Summary Borrar vacuna
// @Tags vaccinations
// @Param vaccinationID path string true "ID de la vacuna"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse "vaccination not found"
// @Router /vaccinations/{vaccinationID} [delete]
func deleteVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteVaccination(r.Context(), chi.URLParam(r, "vaccinationID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.NoContent(w)
	}
}

// listParasiticControlsHandler godoc
// @Summary Listar controles parasitarios de una mascota
// @Description Ordenados por fecha de aplicación, el más reciente primero.
// @Tags parasitic-controls
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} ParasiticControlResponse
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID}/parasitic-controls [get]
func listParasiticControlsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListParasiticControls(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusOK, ToParasiticControlResponses(items))
	}
}

// createParasiticControlHandler godoc
// @Summary Registrar control parasitario
// @Tags parasitic-controls
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createParasiticControlRequest true "product_name y application_date obligatorios"
// @Success 201 {object} ParasiticControlResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID}/parasitic-controls [post]
func createParasiticControlHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createParasiticControlRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		c, err := svc.AddParasiticControl(r.Context(), chi.URLParam(r, "petID"), ParasiticControlInput{
			ProductName:         req.ProductName,
			ProductType:         req.ProductType,
			ApplicationDate:     req.ApplicationDate,
			NextApplicationDate: req.NextApplicationDate,
			Dose:                req.Dose,
			Weight:              req.WeightAtApplication,
			Veterinarian:        req.Veterinarian,
			Observations:        req.Observations,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusCreated, ToParasiticControlResponse(c))
	}
}

// updateParasiticControlHandler godoc
// @Summary Actualizar control parasitario
// @Tags parasitic-controls
// @Accept json
// @Produce json
// @Param controlID path string true "ID del control"
// @Param payload body updateParasiticControlRequest true "Campos a modificar"
// @Success 200 {object} ParasiticControlResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse "parasitic control not found"
// @Router /parasitic-controls/{controlID} [put]
func updateParasiticControlHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateParasiticControlRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		c, err := svc.UpdateParasiticControl(r.Context(), chi.URLParam(r, "controlID"), ParasiticControlPatch{
			ProductName:         req.ProductName,
			ProductType:         req.ProductType,
			ApplicationDate:     req.ApplicationDate,
			NextApplicationDate: req.NextApplicationDate,
			Dose:                req.Dose,
			Weight:              req.WeightAtApplication,
			Veterinarian:        req.Veterinarian,
			Observations:        req.Observations,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusOK, ToParasiticControlResponse(c))
	}
}

// deleteParasiticControlHandler godoc
// @Summary Borrar control parasitario
// @Tags parasitic-controls
// @Param controlID path string true "ID del control"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse "parasitic control not found"
// @Router /parasitic-controls/{controlID} [delete]
func deleteParasiticControlHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteParasiticControl(r.Context(), chi.URLParam(r, "controlID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.NoContent(w)
	}
}
