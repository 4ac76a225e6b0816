package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fentz26/sift/internal/store"
)

// httpError maps store errors onto HTTP status codes: missing rows are 404,
// caller mistakes are 400, everything else is a 500.
func httpError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotASuggestion), errors.Is(err, store.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
