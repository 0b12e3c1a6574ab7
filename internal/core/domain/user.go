package domain

import (
	"strings"
	"time"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

// IsAdmin reports whether the role may manage communities and accounts.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperuser
}

// User models an administrator or resident manager account.
// Username is stored case-folded (see NormalizeUsername).
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal is the identity carried by an authenticated session.
type Principal struct {
	UserID   string
	Username string
	Role     Role
}

// NormalizeUsername folds a username for storage and comparison.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
