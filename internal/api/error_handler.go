package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/trueque/marketplace/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrListingNotFound):
		return http.StatusNotFound, "servicio no encontrado"
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden, "el servicio no te pertenece"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "acceso denegado"
	case errors.Is(err, domain.ErrAlreadySaved):
		return http.StatusConflict, "el servicio ya está guardado"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "credenciales inválidas"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "usuario no encontrado"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "el correo ya está registrado"
	case errors.Is(err, domain.ErrProvinceNotFound):
		return http.StatusNotFound, "provincia no encontrada"
	case errors.Is(err, domain.ErrMunicipalityNotFound):
		return http.StatusNotFound, "municipio no encontrado"
	case errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound, "categoría no encontrada"
	case errors.Is(err, domain.ErrSubcategoryNotFound):
		return http.StatusNotFound, "subcategoría no encontrada"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "error interno del servidor"
}
