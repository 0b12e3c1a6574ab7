package ports

import (
	"context"
	"time"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

// PersonInput carries a resident to add to an address.
type PersonInput struct {
	Username string
	PlayerID string
}

// CodeInput carries an access code to add to an address.
type CodeInput struct {
	Description string
	Code        string
	ExpiresAt   time.Time
}

// AllowedUsersResult is returned after replacing a community allow-list.
type AllowedUsersResult struct {
	Community    *domain.Community
	InvalidUsers []string
}

// CommunityService exposes the community tree to the transport layer.
// Every call taking a viewer enforces visibility: admins see everything,
// other users only communities that allow-list them.
type CommunityService interface {
	List(ctx context.Context, viewer domain.Principal) ([]domain.Community, error)
	Get(ctx context.Context, viewer domain.Principal, id string) (*domain.Community, error)
	Create(ctx context.Context, name string) (*domain.Community, error)
	// Delete removes the community and every access log recorded under its name.
	Delete(ctx context.Context, id string) error
	SetAllowedUsers(ctx context.Context, id string, usernames []string) (*AllowedUsersResult, error)

	ListAddresses(ctx context.Context, viewer domain.Principal, id string) ([]domain.Address, error)
	GetAddress(ctx context.Context, viewer domain.Principal, id, addressID string) (*domain.Address, error)
	AddAddress(ctx context.Context, viewer domain.Principal, id, street string) (*domain.Address, error)
	DeleteAddress(ctx context.Context, viewer domain.Principal, id, addressID string) error

	AddPerson(ctx context.Context, viewer domain.Principal, id, addressID string, input PersonInput) (*domain.Person, error)
	DeletePerson(ctx context.Context, viewer domain.Principal, id, addressID, personID string) error

	AddCode(ctx context.Context, viewer domain.Principal, id, addressID string, input CodeInput) (*domain.Code, error)
	DeleteCode(ctx context.Context, viewer domain.Principal, id, addressID, codeID string) error

	// SweepExpiredCodes removes every code expired at now and returns the
	// number removed. Only communities that changed are written.
	SweepExpiredCodes(ctx context.Context, now time.Time) (int, error)
}
