package sessions

import (
	"errors"
	"net/http"
	"time"

	"vet-clinic-records/internal/domain/users"
	"vet-clinic-records/internal/middleware"
	"vet-clinic-records/internal/platform/apperr"
	"vet-clinic-records/internal/platform/httpx"
	"vet-clinic-records/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

// LoginRecorder cuenta resultados de login (success / invalid_credentials).
type LoginRecorder interface {
	Login(outcome string)
}

type HandlerOptions struct {
	Cookie CookieConfig

	// Se aplican solo a POST /login (throttling).
	LoginMiddlewares []func(http.Handler) http.Handler

	Recorder LoginRecorder
}

func RegisterRoutes(r chi.Router, svc *Service, opts HandlerOptions) {
	if opts.Cookie.Name == "" {
		opts.Cookie.Name = "session"
	}
	h := &authHandler{svc: svc, opts: opts}

	r.With(opts.LoginMiddlewares...).Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
	r.Post("/change-password", h.changePassword)
	r.Get("/check-session", h.checkSession)
}

type authHandler struct {
	svc  *Service
	opts HandlerOptions
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Message string         `json:"message"`
	User    users.Response `json:"user"`
	Token   string         `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type checkSessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	User          *users.Response `json:"user,omitempty"`
}

// login godoc
// @Summary Iniciar sesión
// @Description Devuelve el usuario y deja la cookie de sesión (HttpOnly). El token también vuelve en el body para clientes que usan Authorization: Bearer.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 400 {object} httpx.ErrorResponse "faltan campos"
// @Failure 401 {object} httpx.ErrorResponse "credenciales inválidas o usuario inactivo"
// @Failure 429 {object} httpx.ErrorResponse
// @Router /login [post]
func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, apperr.Invalid("username and password are required"))
		return
	}

	token, u, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) {
			h.record("invalid_credentials")
			logger.FromContext(r.Context()).Info("login rejected", map[string]any{"username": req.Username})
		}
		httpx.WriteError(w, r, err)
		return
	}
	h.record("success")

	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.Cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.svc.TTL()),
		MaxAge:   int(h.svc.TTL().Seconds()),
	})

	httpx.WriteJSON(w, r, http.StatusOK, loginResponse{
		Message: "login successful",
		User:    users.ToResponse(u),
		Token:   token,
	})
}

// logout godoc
// @Summary Cerrar sesión
// @Description Invalida la sesión del token recibido y borra la cookie. Sin sesión también responde 200.
// @Tags auth
// @Produce json
// @Success 200 {object} httpx.MessageResponse
// @Router /logout [post]
func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), middleware.TokenFromRequest(r, h.opts.Cookie.Name)); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.clearCookie(w)
	httpx.WriteMessage(w, r, http.StatusOK, "logout successful")
}

// me godoc
// @Summary Usuario de la sesión actual
// @Tags auth
// @Produce json
// @Success 200 {object} users.Response
// @Failure 401 {object} httpx.ErrorResponse
// @Router /me [get]
func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.current(r)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) && middleware.TokenFromRequest(r, h.opts.Cookie.Name) != "" {
			h.clearCookie(w)
		}
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, users.ToResponse(u))
}

// changePassword godoc
// @Summary Cambiar contraseña propia
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body changePasswordRequest true "Contraseña actual y nueva (mínimo 6 caracteres)"
// @Success 200 {object} httpx.MessageResponse
// @Failure 400 {object} httpx.ErrorResponse "contraseña actual incorrecta o nueva demasiado corta"
// @Failure 401 {object} httpx.ErrorResponse
// @Router /change-password [post]
func (h *authHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, r, errNoSession)
		return
	}

	var req changePasswordRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, apperr.Invalid("current_password and new_password are required"))
		return
	}

	if err := h.svc.ChangePassword(r.Context(), p.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteMessage(w, r, http.StatusOK, "password changed")
}

// checkSession godoc
// @Summary Estado de la sesión
// @Description Responde 200 siempre; authenticated indica si hay sesión válida.
// @Tags auth
// @Produce json
// @Success 200 {object} checkSessionResponse
// @Router /check-session [get]
func (h *authHandler) checkSession(w http.ResponseWriter, r *http.Request) {
	u, err := h.current(r)
	if err != nil {
		if !errors.Is(err, apperr.ErrUnauthenticated) {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, r, http.StatusOK, checkSessionResponse{Authenticated: false})
		return
	}
	resp := users.ToResponse(u)
	httpx.WriteJSON(w, r, http.StatusOK, checkSessionResponse{Authenticated: true, User: &resp})
}

// current usa el Principal que dejó AuthContext; la sesión no se vuelve a resolver.
func (h *authHandler) current(r *http.Request) (users.User, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return users.User{}, errNoSession
	}
	return h.svc.Current(r.Context(), p.UserID)
}

func (h *authHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.Cookie.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (h *authHandler) record(outcome string) {
	if h.opts.Recorder != nil {
		h.opts.Recorder.Login(outcome)
	}
}
