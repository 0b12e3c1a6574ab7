package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/accessadmin/internal/api/metrics"
	"github.com/gatehouse/accessadmin/internal/api/session"
	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	csrf        *session.CSRFSigner
}

func NewAuthHandler(authService ports.AuthService, csrf *session.CSRFSigner) *AuthHandler {
	return &AuthHandler{authService: authService, csrf: csrf}
}

// Login verifies credentials and establishes a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token  header    string        true  "CSRF token"
// @Param        body          body      loginRequest  true  "Login credentials"
// @Success      200           {object}  authStatusResponse
// @Failure      400           {object}  errorResponse
// @Failure      401           {object}  errorResponse
// @Failure      403           {object}  errorResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}
	if err := session.Login(c, user); err != nil {
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, authStatusResponse{
		Authenticated: true,
		UserID:        user.ID,
		Username:      user.Username,
		Role:          user.Role,
	})
}

// Logout destroys the session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Param        X-CSRF-Token  header    string  true  "CSRF token"
// @Success      200           {object}  messageResponse
// @Failure      401           {object}  errorResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := session.Logout(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// CheckAuth reports the identity behind the session, if any.
//
// @Summary      Report session identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authStatusResponse
// @Router       /api/check-auth [get]
func (h *AuthHandler) CheckAuth(c echo.Context) error {
	userID, err := session.UserID(c)
	if err != nil {
		return c.JSON(http.StatusOK, authStatusResponse{})
	}
	user, err := h.authService.Resolve(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return c.JSON(http.StatusOK, authStatusResponse{})
		}
		return err
	}
	return c.JSON(http.StatusOK, authStatusResponse{
		Authenticated: true,
		UserID:        user.ID,
		Username:      user.Username,
		Role:          user.Role,
	})
}

// CSRFToken issues a token bound to the session nonce.
//
// @Summary      Issue a CSRF token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  csrfTokenResponse
// @Router       /csrf-token [get]
func (h *AuthHandler) CSRFToken(c echo.Context) error {
	nonce, err := session.Nonce(c)
	if err != nil {
		return err
	}
	token, err := h.csrf.Mint(nonce)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, csrfTokenResponse{CSRFToken: token})
}
