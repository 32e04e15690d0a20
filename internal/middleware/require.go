package middleware

import (
	"net/http"

	"vet-clinic-records/internal/domain/permissions"
	"vet-clinic-records/internal/platform/httpx"
)

const (
	msgUnauthenticated = "authentication required"
	msgForbidden       = "access denied: missing permission"
	msgAdminOnly       = "access denied: administrators only"
)

// Require corta con 401 si no hay sesión y con 403 si falta la capacidad.
func Require(c permissions.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				httpx.WriteStatus(w, r, http.StatusUnauthorized, msgUnauthenticated)
				return
			}
			if !permissions.Allow(p, c) {
				httpx.WriteStatus(w, r, http.StatusForbidden, msgForbidden+" "+string(c))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			httpx.WriteStatus(w, r, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		if !p.IsAdmin() {
			httpx.WriteStatus(w, r, http.StatusForbidden, msgAdminOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth solo exige sesión válida.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); !ok {
			httpx.WriteStatus(w, r, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
