package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"vet-clinic-records/internal/domain/sessions"
	"vet-clinic-records/internal/middleware"
	"vet-clinic-records/internal/router"
)

const (
	adminUser = "admin"
	adminPass = "admin123"
)

var today = time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC)

func newServer(t *testing.T, mutate ...func(*router.Options)) *httptest.Server {
	t.Helper()

	opts := router.Options{
		SessionTTL: time.Hour,
		Cookie:     sessions.CookieConfig{Name: "vet_session"},
		BcryptCost: bcrypt.MinCost,
		LoginLimit: middleware.LoginLimitConfig{Requests: 100, Window: time.Minute},
		Bootstrap: router.BootstrapAdmin{
			Username: adminUser,
			Email:    "admin@clinic.test",
			Password: adminPass,
		},
		Now: func() time.Time { return today },
	}
	for _, m := range mutate {
		m(&opts)
	}

	h, err := router.NewRouter(context.Background(), opts)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_VaccinationSchedule(t *testing.T) {
	ts := newServer(t)
	admin := login(t, ts.URL, adminUser, adminPass)

	// 1) Admin crea un veterinario con acceso a reportes
	createUser(t, ts.URL, admin, map[string]any{
		"username":           "vet",
		"email":              "vet@clinic.test",
		"password":           "secret1",
		"can_access_reports": true,
	})
	vet := login(t, ts.URL, "vet", "secret1")

	// 2) Alta de mascota
	petID := createPet(t, ts.URL, vet, map[string]any{"name": "Rex", "species": "dog"})

	// 3) Vacuna con próxima dosis dentro de la ventana
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/vaccinations", vet, map[string]any{
			"vaccine_name":     "V10",
			"application_date": "2024-01-10",
			"next_dose_date":   "2024-02-09",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create vaccination, got %d body=%s", st, string(body))
		}
	}

	// 4) Control parasitario
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/parasitic-controls", vet, map[string]any{
			"product_name":     "Bravecto",
			"application_date": "2024-01-05",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create parasitic control, got %d body=%s", st, string(body))
		}
	}

	// 5) El detalle trae la historia
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, vet, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 pet detail, got %d body=%s", st, string(body))
		}
		var detail struct {
			Active            bool              `json:"active"`
			Vaccinations      []json.RawMessage `json:"vaccinations"`
			ParasiticControls []json.RawMessage `json:"parasitic_controls"`
		}
		mustDecode(t, body, &detail)
		if !detail.Active || len(detail.Vaccinations) != 1 || len(detail.ParasiticControls) != 1 {
			t.Fatalf("unexpected pet detail: %s", string(body))
		}
	}

	// 6) Reporte con hoy = 2024-01-20 y ventana de 30 días
	{
		st, body := doReq(t, ts.URL, "GET", "/reports/vaccination-schedule?days=30", vet, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 report, got %d body=%s", st, string(body))
		}
		var rows []struct {
			PetName      string `json:"pet_name"`
			VaccineName  string `json:"vaccine_name"`
			NextDoseDate string `json:"next_dose_date"`
		}
		mustDecode(t, body, &rows)
		if len(rows) != 1 || rows[0].PetName != "Rex" || rows[0].NextDoseDate != "2024-02-09" {
			t.Fatalf("unexpected report: %s", string(body))
		}
	}

	// 7) Ventana fuera de rango
	{
		st, _ := doReq(t, ts.URL, "GET", "/reports/vaccination-schedule?days=0", vet, nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for days=0, got %d", st)
		}
	}

	// 8) Baja lógica: 204 sin body, sigue consultable, sale del listado y del reporte
	{
		st, body := doReq(t, ts.URL, "DELETE", "/pets/"+petID, vet, nil)
		if st != http.StatusNoContent || len(body) != 0 {
			t.Fatalf("expected 204 empty delete, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, vet, nil)
		if st != http.StatusOK || !strings.Contains(string(body), `"active":false`) {
			t.Fatalf("expected inactive pet detail, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/pets", vet, nil)
		if st != http.StatusOK || strings.Contains(string(body), petID) {
			t.Fatalf("expected pet out of list, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/reports/vaccination-schedule", vet, nil)
		if st != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
			t.Fatalf("expected empty report after soft delete, got %d body=%s", st, string(body))
		}
	}
}

func TestHTTP_Users_Validation(t *testing.T) {
	ts := newServer(t)
	admin := login(t, ts.URL, adminUser, adminPass)

	// Contraseña corta => 400 y no se crea nada
	{
		st, body := doReq(t, ts.URL, "POST", "/users", admin, map[string]any{
			"username": "shorty",
			"email":    "shorty@clinic.test",
			"password": "abc",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 short password, got %d body=%s", st, string(body))
		}
		st, body = doReq(t, ts.URL, "GET", "/users", admin, nil)
		if st != http.StatusOK || strings.Contains(string(body), "shorty") {
			t.Fatalf("user should not exist, got %d body=%s", st, string(body))
		}
	}

	// Username duplicado => 400 (Conflict)
	{
		st, body := doReq(t, ts.URL, "POST", "/users", admin, map[string]any{
			"username": adminUser,
			"email":    "other@clinic.test",
			"password": "secret1",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 duplicate username, got %d body=%s", st, string(body))
		}
	}

	// Auto-borrado => 400 y la cuenta sigue
	{
		st, body := doReq(t, ts.URL, "GET", "/me", admin, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 me, got %d body=%s", st, string(body))
		}
		var me struct {
			ID string `json:"id"`
		}
		mustDecode(t, body, &me)

		st, body = doReq(t, ts.URL, "DELETE", "/users/"+me.ID, admin, nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 self delete, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "GET", "/users/"+me.ID, admin, nil)
		if st != http.StatusOK {
			t.Fatalf("admin should persist, got %d", st)
		}
	}

	// Permisos: capacidades de un admin se rechazan
	{
		id := createUser(t, ts.URL, admin, map[string]any{
			"username": "boss",
			"email":    "boss@clinic.test",
			"password": "secret1",
			"role":     "admin",
		})
		st, body := doReq(t, ts.URL, "PUT", "/users/"+id+"/permissions", admin, map[string]any{
			"can_access_reports": false,
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 admin permissions, got %d body=%s", st, string(body))
		}
	}
}

func TestHTTP_AuthBoundaries(t *testing.T) {
	ts := newServer(t)
	admin := login(t, ts.URL, adminUser, adminPass)

	createUser(t, ts.URL, admin, map[string]any{
		"username": "nurse",
		"email":    "nurse@clinic.test",
		"password": "secret1",
	})
	nurse := login(t, ts.URL, "nurse", "secret1")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"pets without session", "GET", "/pets", "", http.StatusUnauthorized},
		{"users without session", "GET", "/users", "", http.StatusUnauthorized},
		{"users as non-admin", "GET", "/users", nurse, http.StatusForbidden},
		{"report without capability", "GET", "/reports/vaccination-schedule", nurse, http.StatusForbidden},
		{"report as admin", "GET", "/reports/vaccination-schedule", admin, http.StatusOK},
		{"pets with default capabilities", "GET", "/pets", nurse, http.StatusOK},
		{"bogus token", "GET", "/me", "not-a-token", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, body := doReq(t, ts.URL, tc.method, tc.path, tc.token, nil)
			if st != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, st, string(body))
			}
			if st >= 400 && !strings.Contains(string(body), `"error"`) {
				t.Fatalf("expected error body, got %s", string(body))
			}
		})
	}

	// Credenciales malas / faltantes
	if st, _ := doReq(t, ts.URL, "POST", "/login", "", map[string]any{"username": "nurse", "password": "wrong"}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 bad password, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/login", "", map[string]any{"username": "nurse"}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 missing password, got %d", st)
	}
}

func TestHTTP_SessionLifecycle(t *testing.T) {
	ts := newServer(t)

	// Login deja cookie HttpOnly
	var token string
	{
		res := rawReq(t, ts.URL, "POST", "/login", "", map[string]any{"username": adminUser, "password": adminPass})
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 login, got %d", res.StatusCode)
		}
		var cookie *http.Cookie
		for _, c := range res.Cookies() {
			if c.Name == "vet_session" {
				cookie = c
			}
		}
		if cookie == nil || !cookie.HttpOnly || cookie.Value == "" {
			t.Fatalf("expected HttpOnly session cookie, got %+v", res.Cookies())
		}
		token = cookie.Value
	}

	// check-session en ambos estados responde 200
	{
		st, body := doReq(t, ts.URL, "GET", "/check-session", token, nil)
		if st != http.StatusOK || !strings.Contains(string(body), `"authenticated":true`) {
			t.Fatalf("expected authenticated, got %d body=%s", st, string(body))
		}
		st, body = doReq(t, ts.URL, "GET", "/check-session", "", nil)
		if st != http.StatusOK || !strings.Contains(string(body), `"authenticated":false`) {
			t.Fatalf("expected anonymous, got %d body=%s", st, string(body))
		}
	}

	// Cambio de contraseña
	{
		st, _ := doReq(t, ts.URL, "POST", "/change-password", token, map[string]any{
			"current_password": "wrong-one",
			"new_password":     "newpass1",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 wrong current password, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "POST", "/change-password", token, map[string]any{
			"current_password": adminPass,
			"new_password":     "123",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 short new password, got %d", st)
		}
		st, body := doReq(t, ts.URL, "POST", "/change-password", token, map[string]any{
			"current_password": adminPass,
			"new_password":     "newpass1",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 change password, got %d body=%s", st, string(body))
		}
	}

	// Logout invalida la sesión
	{
		st, _ := doReq(t, ts.URL, "POST", "/logout", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 logout, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/me", token, nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 after logout, got %d", st)
		}
	}

	if st, _ := doReq(t, ts.URL, "POST", "/login", "", map[string]any{"username": adminUser, "password": adminPass}); st != http.StatusUnauthorized {
		t.Fatalf("old password should be rejected, got %d", st)
	}
	login(t, ts.URL, adminUser, "newpass1")
}

func TestHTTP_LoginThrottled(t *testing.T) {
	ts := newServer(t, func(o *router.Options) {
		o.LoginLimit = middleware.LoginLimitConfig{Requests: 2, Window: time.Minute}
	})

	payload := map[string]any{"username": adminUser, "password": "wrong"}
	for i := 0; i < 2; i++ {
		if st, _ := doReq(t, ts.URL, "POST", "/login", "", payload); st != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, st)
		}
	}
	st, body := doReq(t, ts.URL, "POST", "/login", "", payload)
	if st != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", st, string(body))
	}
}

func TestHTTP_Operational(t *testing.T) {
	ts := newServer(t)

	if st, body := doReq(t, ts.URL, "GET", "/health", "", nil); st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("health: %d %s", st, string(body))
	}
	if st, _ := doReq(t, ts.URL, "GET", "/readyz", "", nil); st != http.StatusOK {
		t.Fatalf("readyz: %d", st)
	}
	if st, body := doReq(t, ts.URL, "GET", "/metrics", "", nil); st != http.StatusOK || !strings.Contains(string(body), "vetclinic_http_requests_total") {
		t.Fatalf("metrics: %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/swagger/doc.json", "", nil); st != http.StatusOK {
		t.Fatalf("swagger: %d", st)
	}
	if st, body := doReq(t, ts.URL, "GET", "/nope", "", nil); st != http.StatusNotFound || !strings.Contains(string(body), `"error"`) {
		t.Fatalf("not found: %d %s", st, string(body))
	}
}

func TestHTTP_SwaggerDocumentsEveryRoute(t *testing.T) {
	h, err := router.NewRouter(context.Background(), router.Options{
		Cookie:     sessions.CookieConfig{Name: "vet_session"},
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	routes, ok := h.(chi.Routes)
	if !ok {
		t.Fatalf("router is %T, want chi.Routes", h)
	}

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	st, body := doReq(t, ts.URL, "GET", "/swagger/doc.json", "", nil)
	if st != http.StatusOK {
		t.Fatalf("swagger: %d", st)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	mustDecode(t, body, &doc)

	operational := map[string]bool{"/health": true, "/readyz": true, "/metrics": true, "/swagger/*": true}
	walked := 0
	err = chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		if operational[route] {
			return nil
		}
		walked++
		if _, ok := doc.Paths[route][strings.ToLower(method)]; !ok {
			t.Errorf("%s %s missing from swagger doc", method, route)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if walked < 25 {
		t.Fatalf("walked only %d routes", walked)
	}
}

func TestHTTP_MalformedIDsAreNotFound(t *testing.T) {
	ts := newServer(t)
	admin := login(t, ts.URL, adminUser, adminPass)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/pets/abc"},
		{"PUT", "/pets/abc"},
		{"DELETE", "/pets/abc"},
		{"GET", "/pets/abc/vaccinations"},
		{"DELETE", "/vaccinations/42"},
		{"PUT", "/parasitic-controls/42"},
		{"GET", "/users/42"},
		{"DELETE", "/users/42"},
	} {
		var body any
		if tc.method == "PUT" {
			body = map[string]any{}
		}
		if st, raw := doReq(t, ts.URL, tc.method, tc.path, admin, body); st != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d body=%s", tc.method, tc.path, st, string(raw))
		}
	}
}

func login(t *testing.T, baseURL, username, password string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/login", "", map[string]any{
		"username": username,
		"password": password,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 login %s, got %d body=%s", username, st, string(body))
	}

	var resp struct {
		Token string `json:"token"`
	}
	mustDecode(t, body, &resp)
	if resp.Token == "" {
		t.Fatalf("login: missing token body=%s", string(body))
	}
	return resp.Token
}

func createUser(t *testing.T, baseURL, token string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/users", token, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create user, got %d body=%s", st, string(body))
	}
	var resp struct {
		ID string `json:"id"`
	}
	mustDecode(t, body, &resp)
	return resp.ID
}

func createPet(t *testing.T, baseURL, token string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", token, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID     string `json:"id"`
		Active bool   `json:"active"`
	}
	mustDecode(t, body, &resp)
	if resp.ID == "" || !resp.Active {
		t.Fatalf("create pet: unexpected body=%s", string(body))
	}
	return resp.ID
}

func mustDecode(t *testing.T, body []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
}

func rawReq(t *testing.T, baseURL, method, path, token string, body any) *http.Response {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return res
}

func doReq(t *testing.T, baseURL, method, path, token string, body any) (int, []byte) {
	t.Helper()

	res := rawReq(t, baseURL, method, path, token, body)
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
