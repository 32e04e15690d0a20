package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vet-clinic-records/internal/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Invalid("x"), http.StatusBadRequest},
		{apperr.Conflict("username already exists"), http.StatusBadRequest},
		{apperr.ErrUnauthenticated, http.StatusUnauthorized},
		{apperr.Forbidden("nope"), http.StatusForbidden},
		{fmt.Errorf("get pet: %w", apperr.NotFound("pet")), http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(w, r, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

func TestWriteError_DomainMessage(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(w, r, apperr.Invalid("name is required"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"name is required"}`, w.Body.String())
}

type loginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func TestDecode(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"ana"}`))
	var dto loginDTO
	err := Decode(r, &dto)
	require.ErrorIs(t, err, apperr.ErrInvalid)
	assert.Equal(t, "password is required", apperr.Message(err))

	r = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{bad`))
	assert.ErrorIs(t, Decode(r, &dto), apperr.ErrInvalid)

	r = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(``))
	assert.ErrorIs(t, Decode(r, &dto), apperr.ErrInvalid)

	r = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"ana","password":"x"}`))
	require.NoError(t, Decode(r, &dto))
	assert.Equal(t, "ana", dto.Username)
}
