package ports

import (
	"context"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

// CreateUserInput carries the fields needed to create an account.
type CreateUserInput struct {
	Username string
	Password string
	Role     domain.Role
}

// UserService manages accounts. Actor is the principal performing the call;
// it is used for the self-modification guards.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Principal, id string) error
	// ToggleRole flips an account between user and admin. Promotion removes
	// the username from every community allow-list.
	ToggleRole(ctx context.Context, actor domain.Principal, id string) (*domain.User, error)
	// EnsureSuperuser creates the superuser account unless one already exists.
	EnsureSuperuser(ctx context.Context, username, password string) (*domain.User, error)
}
