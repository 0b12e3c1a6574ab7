package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

// ctxPrincipal extracts the identity injected by the RequireAuth middleware.
// A missing user id means the middleware did not run: reject with 401.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	username, _ := c.Get("username").(string)
	role, _ := c.Get("role").(string)
	return domain.Principal{UserID: userID, Username: username, Role: domain.Role(role)}, nil
}

// bindValid binds the request body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
