package ports

import (
	"context"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

// AccessAttempt is an access report posted by the game server.
type AccessAttempt struct {
	Community string
	Player    string
	Action    string
}

// AccessService records and lists access attempts.
type AccessService interface {
	// Record appends a log entry. It returns domain.ErrCommunityNotFound for
	// an unknown community and domain.ErrThrottled inside the debounce window.
	Record(ctx context.Context, attempt AccessAttempt) (*domain.AccessLog, error)
	// Logs returns the newest entries for a community given by id or name.
	Logs(ctx context.Context, viewer domain.Principal, idOrName string) ([]domain.AccessLog, error)
}
