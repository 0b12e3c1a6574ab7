package ports

import (
	"context"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.User, error)
	// Resolve reloads the account behind a session so role changes and
	// deletions take effect immediately.
	Resolve(ctx context.Context, userID string) (*domain.User, error)
}
