package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gatehouse/accessadmin/internal/core/domain"
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
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("http error")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes. Validation and limit
	// errors carry a caller-facing message.
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrCommunityLimit):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrProtectedUser):
		return http.StatusForbidden, "user cannot be modified"
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCommunityNotFound),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrPersonNotFound),
		errors.Is(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, rootMessage(err)
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrCommunityExists),
		errors.Is(err, domain.ErrSuperuserExists):
		return http.StatusConflict, rootMessage(err)
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "resource was modified concurrently, retry"
	case errors.Is(err, domain.ErrThrottled):
		return http.StatusTooManyRequests, "too many requests"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// rootMessage returns the text of the domain sentinel err wraps, so adapter
// context never reaches the client.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrUserNotFound, domain.ErrCommunityNotFound, domain.ErrAddressNotFound,
		domain.ErrPersonNotFound, domain.ErrCodeNotFound,
		domain.ErrUserExists, domain.ErrCommunityExists, domain.ErrSuperuserExists,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
