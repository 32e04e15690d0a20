package users

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"vet-clinic-records/internal/domain/permissions"
	"vet-clinic-records/internal/middleware"
	"vet-clinic-records/internal/platform/apperr"
	"vet-clinic-records/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta la administración de usuarios. El router la envuelve con RequireAdmin.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users", func(ur chi.Router) {
		ur.Get("/", listUsersHandler(svc))
		ur.Post("/", createUserHandler(svc))
		ur.Get("/{userID}", getUserHandler(svc))
		ur.Put("/{userID}", updateUserHandler(svc))
		ur.Delete("/{userID}", deleteUserHandler(svc))
		ur.Put("/{userID}/permissions", updatePermissionsHandler(svc))
	})
}

type PermissionsResponse struct {
	CanAccessVaccination bool `json:"can_access_vaccination"`
	CanAccessReports     bool `json:"can_access_reports"`
	CanManagePets        bool `json:"can_manage_pets"`
}

// Response es la vista pública de un usuario (sin hash).
type Response struct {
	ID          string              `json:"id"`
	Username    string              `json:"username"`
	Email       string              `json:"email"`
	Role        permissions.Role    `json:"role"`
	Active      bool                `json:"active"`
	CreatedAt   time.Time           `json:"created_at"`
	LastLogin   *time.Time          `json:"last_login"`
	Permissions PermissionsResponse `json:"permissions"`
}

// ToResponse informa las capacidades efectivas (un admin las tiene todas).
func ToResponse(u User) Response {
	eff := permissions.Effective(u.Role, u.Capabilities)
	return Response{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
		Permissions: PermissionsResponse{
			CanAccessVaccination: eff.Has(permissions.CapAccessVaccination),
			CanAccessReports:     eff.Has(permissions.CapAccessReports),
			CanManagePets:        eff.Has(permissions.CapManagePets),
		},
	}
}

type capabilityFlags struct {
	CanAccessVaccination *bool `json:"can_access_vaccination"`
	CanAccessReports     *bool `json:"can_access_reports"`
	CanManagePets        *bool `json:"can_manage_pets"`
}

func (f capabilityFlags) changes() map[permissions.Capability]bool {
	out := map[permissions.Capability]bool{}
	if f.CanAccessVaccination != nil {
		out[permissions.CapAccessVaccination] = *f.CanAccessVaccination
	}
	if f.CanAccessReports != nil {
		out[permissions.CapAccessReports] = *f.CanAccessReports
	}
	if f.CanManagePets != nil {
		out[permissions.CapManagePets] = *f.CanManagePets
	}
	return out
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
	Active   *bool  `json:"active"`
	capabilityFlags
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,max=80"`
	Email    *string `json:"email" validate:"omitempty,email,max=120"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin user"`
	Active   *bool   `json:"active"`
	Password *string `json:"password"`
	capabilityFlags
}

// listUsersHandler godoc
// @Summary Listar usuarios
// @Tags users
// @Produce json
// @Success 200 {array} Response
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /users [get]
func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := make([]Response, 0, len(items))
		for _, u := range items {
			out = append(out, ToResponse(u))
		}
		httpx.WriteJSON(w, r, http.StatusOK, out)
	}
}

// createUserHandler godoc
// @Summary Crear usuario
// @Description Solo administradores. Si no se indican permisos se usan los de un usuario nuevo (vacunación y mascotas).
// @Tags users
// @Accept json
// @Produce json
// @Param payload body createUserRequest true "Datos del usuario; password de al menos 6 caracteres"
// @Success 201 {object} Response
// @Failure 400 {object} httpx.ErrorResponse "validación / username o email ya existe"
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /users [post]
func createUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		u, err := svc.Create(r.Context(), CreateInput{
			Username:     req.Username,
			Email:        req.Email,
			Password:     req.Password,
			Role:         req.Role,
			Active:       req.Active,
			Capabilities: req.changes(),
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusCreated, ToResponse(u))
	}
}

// getUserHandler godoc
// @Summary Detalle de usuario
// @Tags users
// @Produce json
// @Param userID path string true "ID del usuario"
// @Success 200 {object} Response
// @Failure 404 {object} httpx.ErrorResponse
// @Router /users/{userID} [get]
func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Get(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusOK, ToResponse(u))
	}
}

// updateUserHandler godoc
// @Summary Actualizar usuario
// @Description Actualización parcial. Password vacía se ignora. Los permisos solo se pueden fijar si el rol resultante es user.
// @Tags users
// @Accept json
// @Produce json
// @Param userID path string true "ID del usuario"
// @Param payload body updateUserRequest true "Campos a modificar"
// @Success 200 {object} Response
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /users/{userID} [put]
func updateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateUserRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if req.Password != nil && *req.Password == "" {
			req.Password = nil
		}

		u, err := svc.Update(r.Context(), chi.URLParam(r, "userID"), UpdateInput{
			Username:     req.Username,
			Email:        req.Email,
			Role:         req.Role,
			Active:       req.Active,
			Password:     req.Password,
			Capabilities: req.changes(),
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusOK, ToResponse(u))
	}
}

// deleteUserHandler godoc
// @Summary Borrar usuario
// @Description Un administrador no puede borrarse a sí mismo (400).
// @Tags users
// @Param userID path string true "ID del usuario"
// @Success 204
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /users/{userID} [delete]
func deleteUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.PrincipalFrom(r.Context())
		if !ok {
			httpx.WriteError(w, r, apperr.ErrUnauthenticated)
			return
		}

		err := svc.Delete(r.Context(), p.UserID, chi.URLParam(r, "userID"))
		if errors.Is(err, apperr.ErrForbidden) {
			// Borrarse a sí mismo se informa como 400, igual que el resto de reglas de negocio.
			httpx.WriteStatus(w, r, http.StatusBadRequest, apperr.Message(err))
			return
		}
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.NoContent(w)
	}
}

// updatePermissionsHandler godoc
// @Summary Actualizar permisos de un usuario
// @Description Solo para usuarios con rol user. Un admin tiene todas las capacidades y no se pueden modificar (400).
// @Tags users
// @Accept json
// @Produce json
// @Param userID path string true "ID del usuario"
// @Param payload body capabilityFlags true "Permisos a modificar"
// @Success 200 {object} Response
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /users/{userID}/permissions [put]
func updatePermissionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req capabilityFlags
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		u, err := svc.UpdateCapabilities(r.Context(), strings.TrimSpace(chi.URLParam(r, "userID")), req.changes())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusOK, ToResponse(u))
	}
}
