// Package httperr maps ledger errors onto HTTP responses.
package httperr

import (
	"errors"
	"net/http"

	"hours-ledger/internal/api"
	"hours-ledger/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type kind struct {
	target error
	status int
	code   string
}

// Order matters: ErrInvalidRange wraps ErrInvalidDate.
var kinds = []kind{
	{model.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{model.ErrNotOwner, http.StatusForbidden, "not_owner"},
	{model.ErrOutOfScope, http.StatusForbidden, "out_of_scope"},
	{model.ErrForbidden, http.StatusForbidden, "forbidden"},
	{model.ErrInvalidRange, http.StatusBadRequest, "invalid_range"},
	{model.ErrInvalidDate, http.StatusBadRequest, "invalid_date"},
	{model.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{model.ErrNotFound, http.StatusNotFound, "not_found"},
	{model.ErrUserInactive, http.StatusConflict, "user_inactive"},
	{model.ErrConflict, http.StatusConflict, "conflict"},
	{model.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
}

// Status returns the HTTP status and error code for err.
func Status(err error) (int, string) {
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// Write renders err as an api.ErrorResponse. Server-side failures are
// logged and their details kept out of the body.
func Write(c echo.Context, err error) error {
	status, code := Status(err)
	msg := err.Error()
	l := zerolog.Ctx(c.Request().Context())
	switch {
	case status == http.StatusServiceUnavailable:
		l.Warn().Err(err).Msg("store unavailable")
		c.Response().Header().Set("Retry-After", "1")
		msg = "service temporarily unavailable, retry later"
	case status >= http.StatusInternalServerError:
		l.Error().Err(err).Msg("request failed")
		msg = "internal error"
	case model.IsDenied(err):
		l.Info().Err(err).Msg("request denied")
	}
	return c.JSON(status, api.ErrorResponse{Message: msg, Code: code})
}

// BadRequest is the response for bodies or queries that fail binding or
// struct validation.
func BadRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error(), Code: "invalid_input"})
}
