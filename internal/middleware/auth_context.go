package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vet-clinic-records/internal/domain/permissions"
	"vet-clinic-records/internal/platform/apperr"
	"vet-clinic-records/internal/platform/logger"
)

type ctxKey string

const principalKey ctxKey = "principal"

// PrincipalResolver traduce un token de sesión al usuario autenticado.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (permissions.Principal, error)
}

// AuthContext:
// - Toma el token de la cookie de sesión o de Authorization: Bearer.
// - Si resuelve, deja el Principal en el contexto.
// - Si no hay sesión válida el request sigue igual; Require/RequireAdmin deciden 401/403.
func AuthContext(resolver PrincipalResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil {
				if !errors.Is(err, apperr.ErrUnauthenticated) {
					logger.FromContext(r.Context()).Error("resolve session", map[string]any{"err": err})
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PrincipalFrom(ctx context.Context) (permissions.Principal, bool) {
	p, ok := ctx.Value(principalKey).(permissions.Principal)
	if !ok || strings.TrimSpace(p.UserID) == "" {
		return permissions.Principal{}, false
	}
	return p, true
}

// WithPrincipal es para tests de handlers que no pasan por AuthContext.
func WithPrincipal(ctx context.Context, p permissions.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// TokenFromRequest: la cookie tiene prioridad sobre el header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && strings.TrimSpace(c.Value) != "" {
			return strings.TrimSpace(c.Value)
		}
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
