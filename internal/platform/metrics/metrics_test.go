package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New("test")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/pets/{petID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/pets/{petID}", "404"))
	assert.Equal(t, float64(2), got)
}

func TestLogin_Counter(t *testing.T) {
	m := New("test")
	m.Login("success")
	m.Login("invalid_credentials")
	m.Login("success")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.logins.WithLabelValues("success")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.Login("success") })
}

func TestHandler_Exposes(t *testing.T) {
	m := New("test")
	m.Login("success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_login_attempts_total")
}
