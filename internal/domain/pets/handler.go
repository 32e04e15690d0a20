package pets

import (
	"context"
	"net/http"
	"time"

	"vet-clinic-records/internal/domain/clinical"
	"vet-clinic-records/internal/platform/dates"
	"vet-clinic-records/internal/platform/httpx"
	"vet-clinic-records/internal/platform/patch"

	"github.com/go-chi/chi/v5"
)

// HistoryReader arma el detalle de una mascota con su historia clínica.
type HistoryReader interface {
	History(ctx context.Context, petID string) ([]clinical.Vaccination, []clinical.ParasiticControl, error)
}

// RegisterRoutes monta el CRUD de mascotas. El router exige manage_pets.
func RegisterRoutes(r chi.Router, svc *Service, history HistoryReader) {
	r.Get("/pets", listPetsHandler(svc))
	r.Post("/pets", createPetHandler(svc))
	r.Get("/pets/{petID}", getPetHandler(svc, history))
	r.Put("/pets/{petID}", updatePetHandler(svc))
	r.Delete("/pets/{petID}", deletePetHandler(svc))
}

type createPetRequest struct {
	Name       string   `json:"name"`
	Species    string   `json:"species"`
	Breed      string   `json:"breed"`
	BirthDate  string   `json:"birth_date"` // YYYY-MM-DD opcional
	Gender     string   `json:"gender"`
	Weight     *float64 `json:"weight"`
	OwnerName  string   `json:"owner_name" validate:"max=100"`
	OwnerPhone string   `json:"owner_phone" validate:"max=20"`
	OwnerEmail string   `json:"owner_email" validate:"omitempty,email"`
}

// updatePetRequest: campo ausente = no tocar; null limpia los opcionales.
type updatePetRequest struct {
	Name       patch.Field[string]  `json:"name" swaggertype:"string"`
	Species    patch.Field[string]  `json:"species" swaggertype:"string"`
	Breed      patch.Field[string]  `json:"breed" swaggertype:"string"`
	BirthDate  patch.Field[string]  `json:"birth_date" swaggertype:"string"`
	Gender     patch.Field[string]  `json:"gender" swaggertype:"string"`
	Weight     patch.Field[float64] `json:"weight" swaggertype:"number"`
	OwnerName  patch.Field[string]  `json:"owner_name" swaggertype:"string"`
	OwnerPhone patch.Field[string]  `json:"owner_phone" swaggertype:"string"`
	OwnerEmail patch.Field[string]  `json:"owner_email" swaggertype:"string"`
}

type petResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Species    Species     `json:"species"`
	Breed      *string     `json:"breed"`
	BirthDate  *dates.Date `json:"birth_date" swaggertype:"string" format:"date"`
	Gender     *Gender     `json:"gender"`
	Weight     *float64    `json:"weight"`
	OwnerName  *string     `json:"owner_name"`
	OwnerPhone *string     `json:"owner_phone"`
	OwnerEmail *string     `json:"owner_email"`
	CreatedAt  time.Time   `json:"created_at"`
	Active     bool        `json:"active"`
}

type petDetailResponse struct {
	petResponse
	Vaccinations      []clinical.VaccinationResponse      `json:"vaccinations"`
	ParasiticControls []clinical.ParasiticControlResponse `json:"parasitic_controls"`
}

func toPetResponse(p Pet) petResponse {
	var gender *Gender
	if p.Gender != "" {
		g := p.Gender
		gender = &g
	}
	return petResponse{
		ID:         p.ID,
		Name:       p.Name,
		Species:    p.Species,
		Breed:      nullable(p.Breed),
		BirthDate:  p.BirthDate,
		Gender:     gender,
		Weight:     p.Weight,
		OwnerName:  nullable(p.OwnerName),
		OwnerPhone: nullable(p.OwnerPhone),
		OwnerEmail: nullable(p.OwnerEmail),
		CreatedAt:  p.CreatedAt,
		Active:     p.Active,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// listPetsHandler godoc
// @Summary Listar mascotas activas
// @Description Las mascotas dadas de baja no aparecen. Requiere manage_pets.
// @Tags pets
// @Produce json
// @Success 200 {array} petResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListActive(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		httpx.WriteJSON(w, r, http.StatusOK, out)
	}
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Description name y species (dog|cat) obligatorios. birth_date en YYYY-MM-DD, gender M|F.
// @Tags pets
// @Accept json
// @Produce json
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPetRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			Name:       req.Name,
			Species:    req.Species,
			Breed:      req.Breed,
			BirthDate:  req.BirthDate,
			Gender:     req.Gender,
			Weight:     req.Weight,
			OwnerName:  req.OwnerName,
			OwnerPhone: req.OwnerPhone,
			OwnerEmail: req.OwnerEmail,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusCreated, toPetResponse(p))
	}
}

// getPetHandler godoc
// @Summary Detalle de mascota
// @Description Incluye vacunas y controles parasitarios (más reciente primero). Funciona también para mascotas dadas de baja.
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petDetailResponse
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service, history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		vs, cs, err := history.History(r.Context(), p.ID)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		httpx.WriteJSON(w, r, http.StatusOK, petDetailResponse{
			petResponse:       toPetResponse(p),
			Vaccinations:      clinical.ToVaccinationResponses(vs),
			ParasiticControls: clinical.ToParasiticControlResponses(cs),
		})
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota
// @Description Actualización parcial. Un campo ausente no se toca; null limpia los opcionales.
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body updatePetRequest true "Campos a modificar"
// @Success 200 {object} petResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID} [put]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updatePetRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "petID"), UpdateInput{
			Name:       req.Name,
			Species:    req.Species,
			Breed:      req.Breed,
			BirthDate:  req.BirthDate,
			Gender:     req.Gender,
			Weight:     req.Weight,
			OwnerName:  req.OwnerName,
			OwnerPhone: req.OwnerPhone,
			OwnerEmail: req.OwnerEmail,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusOK, toPetResponse(p))
	}
}

// deletePetHandler godoc
// @Summary Dar de baja mascota
// @Description Baja lógica: la mascota deja de listarse y la historia clínica queda intacta.
// @Tags pets
// @Param petID path string true "ID de la mascota"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.SoftDelete(r.Context(), chi.URLParam(r, "petID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.NoContent(w)
	}
}
