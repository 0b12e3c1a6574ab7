package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
)

// DefaultMaxCommunities caps how many communities may exist system-wide.
const DefaultMaxCommunities = 8

const maxCommunityNameLen = 64

// Person is a resident registered at an address.
type Person struct {
	ID       string `json:"id" bson:"id"`
	Username string `json:"username" bson:"username"`
	PlayerID string `json:"playerId" bson:"player_id"`
}

// Code is a time-limited access credential for an address.
type Code struct {
	ID          string    `json:"id" bson:"id"`
	Description string    `json:"description" bson:"description"`
	Code        string    `json:"code" bson:"code"`
	ExpiresAt   time.Time `json:"expiresAt" bson:"expires_at"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// Expired reports whether the code is no longer valid at now.
func (c Code) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Address is a location within a community; it owns its people and codes.
type Address struct {
	ID        string    `json:"id" bson:"id"`
	Street    string    `json:"street" bson:"street"`
	People    []Person  `json:"people" bson:"people"`
	Codes     []Code    `json:"codes" bson:"codes"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// PruneExpiredCodes drops codes expired at now and returns how many were removed.
func (a *Address) PruneExpiredCodes(now time.Time) int {
	before := len(a.Codes)
	a.Codes = slices.DeleteFunc(a.Codes, func(c Code) bool { return c.Expired(now) })
	return before - len(a.Codes)
}

// Community is the tenant aggregate root. Version is bumped on every
// persisted update and used for conditional writes.
type Community struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Addresses    []Address `json:"addresses" bson:"addresses"`
	AllowedUsers []string  `json:"allowedUsers" bson:"allowed_users"`
	Version      int64     `json:"version" bson:"version"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// Allows reports whether username is on the community allow-list.
func (c *Community) Allows(username string) bool {
	return slices.Contains(c.AllowedUsers, NormalizeUsername(username))
}

// VisibleTo reports whether p may view and manage this community.
func (c *Community) VisibleTo(p Principal) bool {
	return p.Role.IsAdmin() || c.Allows(p.Username)
}

// Address returns the address with the given id.
func (c *Community) Address(id string) (*Address, error) {
	for i := range c.Addresses {
		if c.Addresses[i].ID == id {
			return &c.Addresses[i], nil
		}
	}
	return nil, ErrAddressNotFound
}

// RemoveAllowedUser strips username from the allow-list and reports whether
// anything changed.
func (c *Community) RemoveAllowedUser(username string) bool {
	before := len(c.AllowedUsers)
	name := NormalizeUsername(username)
	c.AllowedUsers = slices.DeleteFunc(c.AllowedUsers, func(u string) bool { return u == name })
	return len(c.AllowedUsers) != before
}

// Normalize replaces nil slices with empty ones so JSON renders [] not null.
func (c *Community) Normalize() {
	if c.Addresses == nil {
		c.Addresses = []Address{}
	}
	if c.AllowedUsers == nil {
		c.AllowedUsers = []string{}
	}
	for i := range c.Addresses {
		if c.Addresses[i].People == nil {
			c.Addresses[i].People = []Person{}
		}
		if c.Addresses[i].Codes == nil {
			c.Addresses[i].Codes = []Code{}
		}
	}
}

// ValidateCommunityName checks the naming rules: non-empty, bounded, no whitespace.
func ValidateCommunityName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(name) > maxCommunityNameLen {
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidInput, maxCommunityNameLen)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: name must not contain spaces", ErrInvalidInput)
	}
	return nil
}
