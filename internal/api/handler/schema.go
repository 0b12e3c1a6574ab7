package handler

import (
	"time"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type authStatusResponse struct {
	Authenticated bool        `json:"authenticated"`
	UserID        string      `json:"userId,omitempty"`
	Username      string      `json:"username,omitempty"`
	Role          domain.Role `json:"role,omitempty"`
}

type csrfTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// --- Communities ---

type createCommunityRequest struct {
	Name string `json:"name" validate:"required"`
}

type allowedUsersRequest struct {
	AllowedUsers []string `json:"allowedUsers" validate:"required"`
}

type allowedUsersResponse struct {
	Community    *domain.Community `json:"community"`
	InvalidUsers []string          `json:"invalidUsers"`
}

// --- Addresses, people, codes ---

type addressRequest struct {
	Street string `json:"street" validate:"required,max=200"`
}

type personRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	PlayerID string `json:"playerId" validate:"required,max=64"`
}

type codeRequest struct {
	Description string    `json:"description" validate:"required,max=200"`
	Code        string    `json:"code"        validate:"required,max=64"`
	ExpiresAt   time.Time `json:"expiresAt"   validate:"required"`
}

// --- Access logs ---

type logAccessRequest struct {
	Community string `json:"community" validate:"required"`
	Player    string `json:"player"    validate:"required"`
	Action    string `json:"action"    validate:"required"`
}

// --- Users ---

type createUserRequest struct {
	Username string      `json:"username" validate:"required,max=32"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     domain.Role `json:"role"     validate:"omitempty,oneof=user admin"`
}
