package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/accessadmin/internal/api/session"
	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/core/ports"
)

// RequireAuth loads the account behind the session cookie and injects its
// identity into the context. The account is re-read on every request so a
// deleted user loses access and a role change applies immediately.
func RequireAuth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := session.UserID(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			user, err := auth.Resolve(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
				}
				return err
			}

			c.Set("user_id", user.ID)
			c.Set("username", user.Username)
			c.Set("role", string(user.Role))

			return next(c)
		}
	}
}
