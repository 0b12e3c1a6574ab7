package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/accessadmin/internal/core/ports"
)

// AddressHandler manages addresses and the people and codes they own.
type AddressHandler struct {
	service ports.CommunityService
}

func NewAddressHandler(service ports.CommunityService) *AddressHandler {
	return &AddressHandler{service: service}
}

// List handles GET /api/communities/:id/addresses.
//
// @Summary      List addresses
// @Tags         addresses
// @Produce      json
// @Param        id   path      string  true  "Community id"
// @Success      200  {array}   domain.Address
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/communities/{id}/addresses [get]
func (h *AddressHandler) List(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	addresses, err := h.service.ListAddresses(c.Request().Context(), viewer, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, addresses)
}

// Get handles GET /api/communities/:id/addresses/:addressId.
//
// @Summary      Get an address
// @Tags         addresses
// @Produce      json
// @Param        id         path      string  true  "Community id"
// @Param        addressId  path      string  true  "Address id"
// @Success      200        {object}  domain.Address
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/communities/{id}/addresses/{addressId} [get]
func (h *AddressHandler) Get(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	address, err := h.service.GetAddress(c.Request().Context(), viewer, c.Param("id"), c.Param("addressId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, address)
}

// Create handles POST /api/communities/:id/addresses.
//
// @Summary      Add an address
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "Community id"
// @Param        body  body      addressRequest  true  "Address"
// @Success      201   {object}  domain.Address
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/communities/{id}/addresses [post]
func (h *AddressHandler) Create(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req addressRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	address, err := h.service.AddAddress(c.Request().Context(), viewer, c.Param("id"), req.Street)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, address)
}

// Delete handles DELETE /api/communities/:id/addresses/:addressId.
//
// @Summary      Delete an address
// @Tags         addresses
// @Produce      json
// @Param        id         path      string  true  "Community id"
// @Param        addressId  path      string  true  "Address id"
// @Success      200        {object}  messageResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/communities/{id}/addresses/{addressId} [delete]
func (h *AddressHandler) Delete(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteAddress(c.Request().Context(), viewer, c.Param("id"), c.Param("addressId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "address deleted"})
}

// AddPerson handles POST /api/communities/:id/addresses/:addressId/people.
//
// @Summary      Add a resident
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Param        id         path      string         true  "Community id"
// @Param        addressId  path      string         true  "Address id"
// @Param        body       body      personRequest  true  "Resident"
// @Success      201        {object}  domain.Person
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/communities/{id}/addresses/{addressId}/people [post]
func (h *AddressHandler) AddPerson(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req personRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	person, err := h.service.AddPerson(c.Request().Context(), viewer, c.Param("id"), c.Param("addressId"), ports.PersonInput{
		Username: req.Username,
		PlayerID: req.PlayerID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, person)
}

// DeletePerson handles DELETE /api/communities/:id/addresses/:addressId/people/:personId.
//
// @Summary      Delete a resident
// @Tags         addresses
// @Produce      json
// @Param        id         path      string  true  "Community id"
// @Param        addressId  path      string  true  "Address id"
// @Param        personId   path      string  true  "Person id"
// @Success      200        {object}  messageResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/communities/{id}/addresses/{addressId}/people/{personId} [delete]
func (h *AddressHandler) DeletePerson(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeletePerson(c.Request().Context(), viewer, c.Param("id"), c.Param("addressId"), c.Param("personId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "person deleted"})
}

// AddCode handles POST /api/communities/:id/addresses/:addressId/codes.
//
// @Summary      Add an access code
// @Description  expiresAt is RFC 3339. Codes already expired are accepted and removed by the next sweep.
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Param        id         path      string       true  "Community id"
// @Param        addressId  path      string       true  "Address id"
// @Param        body       body      codeRequest  true  "Access code"
// @Success      201        {object}  domain.Code
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/communities/{id}/addresses/{addressId}/codes [post]
func (h *AddressHandler) AddCode(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req codeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	code, err := h.service.AddCode(c.Request().Context(), viewer, c.Param("id"), c.Param("addressId"), ports.CodeInput{
		Description: req.Description,
		Code:        req.Code,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, code)
}

// DeleteCode handles DELETE /api/communities/:id/addresses/:addressId/codes/:codeId.
//
// @Summary      Delete an access code
// @Tags         addresses
// @Produce      json
// @Param        id         path      string  true  "Community id"
// @Param        addressId  path      string  true  "Address id"
// @Param        codeId     path      string  true  "Code id"
// @Success      200        {object}  messageResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/communities/{id}/addresses/{addressId}/codes/{codeId} [delete]
func (h *AddressHandler) DeleteCode(c echo.Context) error {
	viewer, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteCode(c.Request().Context(), viewer, c.Param("id"), c.Param("addressId"), c.Param("codeId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "code deleted"})
}
