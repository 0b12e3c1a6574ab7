package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/accessadmin/internal/api/metrics"
	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/core/ports"
)

// AccessHandler ingests access reports from the game server and serves the
// per-community log.
type AccessHandler struct {
	service ports.AccessService
}

func NewAccessHandler(service ports.AccessService) *AccessHandler {
	return &AccessHandler{service: service}
}

// Record handles POST /api/log-access. No session or CSRF token is required.
//
// @Summary      Record an access attempt
// @Tags         access
// @Accept       json
// @Produce      json
// @Param        body  body      logAccessRequest  true  "Access attempt"
// @Success      201   {object}  domain.AccessLog
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/log-access [post]
func (h *AccessHandler) Record(c echo.Context) error {
	var req logAccessRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	entry, err := h.service.Record(c.Request().Context(), ports.AccessAttempt{
		Community: req.Community,
		Player:    req.Player,
		Action:    req.Action,
	})
	if err != nil {
		metrics.AccessReportsTotal.WithLabelValues(reportResult(err)).Inc()
		return err
	}

	metrics.AccessReportsTotal.WithLabelValues("recorded").Inc()
	return c.JSON(http.StatusCreated, entry)
}

// Logs handles GET /api/communities/:id/logs. The id segment accepts either
// the community id or its name.
//
// @Summary      Recent access logs
// @Tags         access
// @Produce      json
// @Param        id   path      string  true  "Community id or name"
// @Success      200  {array}   domain.AccessLog
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/communities/{id}/logs [get]
func (h *AccessHandler) Logs(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	logs, err := h.service.Logs(c.Request().Context(), viewer, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}

func reportResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrThrottled):
		return "debounced"
	case errors.Is(err, domain.ErrCommunityNotFound):
		return "unknown_community"
	default:
		return "error"
	}
}
