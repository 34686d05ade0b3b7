package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"hours-ledger/internal/api"
	"hours-ledger/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{model.ErrForbidden, http.StatusForbidden, "forbidden"},
		{model.ErrNotOwner, http.StatusForbidden, "not_owner"},
		{model.ErrOutOfScope, http.StatusForbidden, "out_of_scope"},
		{model.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{model.ErrInvalidDate, http.StatusBadRequest, "invalid_date"},
		{model.ErrInvalidRange, http.StatusBadRequest, "invalid_range"},
		{model.ErrNotFound, http.StatusNotFound, "not_found"},
		{model.ErrUserInactive, http.StatusConflict, "user_inactive"},
		{model.ErrConflict, http.StatusConflict, "conflict"},
		{model.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		status, code := Status(fmt.Errorf("LogTime: %w", tc.err))
		require.Equal(t, tc.status, status, tc.err.Error())
		require.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestWrite(t *testing.T) {
	e := echo.New()

	t.Run("client error keeps message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, Write(c, fmt.Errorf("Update: %w", model.ErrNotOwner)))
		require.Equal(t, http.StatusForbidden, rec.Code)
		var body api.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "not_owner", body.Code)
		require.Contains(t, body.Message, "not owner")
	})

	t.Run("unavailable hides details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, Write(c, fmt.Errorf("%w: dial tcp 10.0.0.1:5432", model.ErrStoreUnavailable)))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "1", rec.Header().Get("Retry-After"))
		require.NotContains(t, rec.Body.String(), "10.0.0.1")
	})

	t.Run("bad request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, BadRequest(c, errors.New("work_date required")))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid_input")
	})
}
