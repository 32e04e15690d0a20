// Package httpx concentra la escritura de respuestas JSON, el mapeo de
// errores de dominio a status HTTP y el decode+validación de requests.
package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"vet-clinic-records/internal/platform/apperr"
	"vet-clinic-records/internal/platform/logger"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Mensajes con el nombre JSON del campo, no el del struct.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func WriteMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, MessageResponse{Message: msg})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// StatusFor traduce la taxonomía de apperr. Conflict es 400 por convención del sistema.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalid), errors.Is(err, apperr.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError escribe {"error": msg}. Los errores no clasificados se loguean
// con el logger del request y salen como "internal error".
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := apperr.Message(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("unhandled error", map[string]any{
			"err":    err,
			"method": r.Method,
			"path":   r.URL.Path,
		})
		msg = "internal error"
	}
	WriteJSON(w, r, status, ErrorResponse{Error: msg})
}

// WriteStatus es para errores de borde que no pasan por el dominio (401/403/429 de middlewares).
func WriteStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, ErrorResponse{Error: msg})
}

// Decode lee el body JSON en dst y corre las reglas `validate` del DTO.
// Cualquier fallo sale como apperr.ErrInvalid.
func Decode(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("request body is required")
		}
		return apperr.Invalid("invalid json: %s", err.Error())
	}
	return Validate(dst)
}

func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Invalid("%s", describe(verrs[0]))
		}
		return apperr.Invalid("%s", err.Error())
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte", "gt":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
