package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"vet-clinic-records/internal/platform/httpx"
	"vet-clinic-records/internal/platform/logger"
)

// Recover atrapa panics, los loguea con stack y responde 500 en JSON.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContext(r.Context()).Error("panic recovered", map[string]any{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			httpx.WriteStatus(w, r, http.StatusInternalServerError, "internal error")
		}()
		next.ServeHTTP(w, r)
	})
}
