package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/accessadmin/internal/core/ports"
)

// CommunityHandler handles community CRUD and allow-list management.
type CommunityHandler struct {
	service ports.CommunityService
}

func NewCommunityHandler(service ports.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: service}
}

// List handles GET /api/communities.
//
// @Summary      List visible communities
// @Tags         communities
// @Produce      json
// @Success      200  {array}   domain.Community
// @Failure      401  {object}  errorResponse
// @Router       /api/communities [get]
func (h *CommunityHandler) List(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	communities, err := h.service.List(c.Request().Context(), viewer)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, communities)
}

// Get handles GET /api/communities/:id.
//
// @Summary      Get a community
// @Tags         communities
// @Produce      json
// @Param        id   path      string  true  "Community id"
// @Success      200  {object}  domain.Community
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/communities/{id} [get]
func (h *CommunityHandler) Get(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	community, err := h.service.Get(c.Request().Context(), viewer, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, community)
}

// Create handles POST /api/communities.
//
// @Summary      Create a community
// @Tags         communities
// @Accept       json
// @Produce      json
// @Param        body  body      createCommunityRequest  true  "Community"
// @Success      201   {object}  domain.Community
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/communities [post]
func (h *CommunityHandler) Create(c echo.Context) error {
	var req createCommunityRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	community, err := h.service.Create(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, community)
}

// Delete handles DELETE /api/communities/:id. Access logs of the community
// are deleted with it.
//
// @Summary      Delete a community
// @Tags         communities
// @Produce      json
// @Param        id   path      string  true  "Community id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/communities/{id} [delete]
func (h *CommunityHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "community deleted"})
}

// SetAllowedUsers handles PUT /api/communities/:id/allowed-users.
//
// @Summary      Replace the community allow-list
// @Description  Unknown usernames and admin accounts are left out and reported in invalidUsers.
// @Tags         communities
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Community id"
// @Param        body  body      allowedUsersRequest  true  "Usernames"
// @Success      200   {object}  allowedUsersResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/communities/{id}/allowed-users [put]
func (h *CommunityHandler) SetAllowedUsers(c echo.Context) error {
	var req allowedUsersRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.service.SetAllowedUsers(c.Request().Context(), c.Param("id"), req.AllowedUsers)
	if err != nil {
		return err
	}
	invalid := res.InvalidUsers
	if invalid == nil {
		invalid = []string{}
	}
	return c.JSON(http.StatusOK, allowedUsersResponse{Community: res.Community, InvalidUsers: invalid})
}
