// Package apperr define la taxonomía de errores compartida por todos los módulos.
// Los servicios envuelven estos sentinels con detalle (fmt.Errorf("%w: ...")) y
// la capa HTTP los traduce a status codes.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalid         = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Invalid construye un error de validación con mensaje legible.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func NotFound(entity string) error {
	return fmt.Errorf("%w: %s not found", ErrNotFound, entity)
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Message devuelve el texto pensado para el cliente: el detalle sin el prefijo del sentinel.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for _, kind := range []error{ErrInvalid, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict} {
		if errors.Is(err, kind) {
			msg := err.Error()
			if i := strings.Index(msg, kind.Error()+": "); i >= 0 {
				return msg[i+len(kind.Error())+2:]
			}
			return msg
		}
	}
	return err.Error()
}
