package ports

import (
	"context"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

// UserRepository persists accounts. Usernames are matched case-folded.
type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Create fails with domain.ErrUserExists when the username is taken.
	Create(ctx context.Context, user *domain.User) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	Delete(ctx context.Context, id string) error
}

// CommunityRepository persists community documents together with their
// addresses, people and codes.
type CommunityRepository interface {
	List(ctx context.Context) ([]domain.Community, error)
	FindByID(ctx context.Context, id string) (*domain.Community, error)
	FindByName(ctx context.Context, name string) (*domain.Community, error)
	// Create fails with domain.ErrCommunityExists when the name is taken and
	// with domain.ErrCommunityLimit when limit > 0 communities already exist.
	// Both checks and the insert are atomic.
	Create(ctx context.Context, c *domain.Community, limit int) error
	// Update replaces the stored document only if its version still equals
	// c.Version, otherwise it returns domain.ErrConflict. On success c.Version
	// and c.UpdatedAt reflect the stored document.
	Update(ctx context.Context, c *domain.Community) error
	// DeleteWithLogs removes the community and every access log recorded
	// under its name as one unit, returning how many logs were removed.
	DeleteWithLogs(ctx context.Context, id string) (int64, error)
	// RemoveAllowedUser strips username from every community allow-list and
	// returns how many communities changed.
	RemoveAllowedUser(ctx context.Context, username string) (int64, error)
}

// AccessLogRepository stores access attempts keyed by community name.
type AccessLogRepository interface {
	Append(ctx context.Context, entry *domain.AccessLog) error
	// ListByCommunity returns at most limit entries, newest first.
	ListByCommunity(ctx context.Context, community string, limit int) ([]domain.AccessLog, error)
}

// AccessThrottle debounces repeated access reports for the same
// (community, player) pair. Allow returns false while the pair is inside
// its window; an allowed call opens a new window.
type AccessThrottle interface {
	Allow(ctx context.Context, community, player string) (bool, error)
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
