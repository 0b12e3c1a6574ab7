package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/core/ports"
)

const (
	minPasswordLen = 6
	maxUsernameLen = 32
)

// UserService manages accounts and the allow-list cascade that follows
// account removal or promotion.
type UserService struct {
	users       ports.UserRepository
	communities ports.CommunityRepository
	cost        int
	log         zerolog.Logger
}

// NewUserService returns a UserService hashing passwords with the given
// bcrypt cost (bcrypt.DefaultCost when out of range).
func NewUserService(users ports.UserRepository, communities ports.CommunityRepository, cost int, log zerolog.Logger) *UserService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &UserService{users: users, communities: communities, cost: cost, log: log}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Create adds a user or admin account. Superusers are only created through
// EnsureSuperuser.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if in.Role != domain.RoleUser && in.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: role must be user or admin", domain.ErrInvalidInput)
	}
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	username := domain.NormalizeUsername(in.Username)
	if err := validateCredentials(username, in.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("username", username).Str("role", string(in.Role)).Msg("user created")
	return user, nil
}

// Delete removes an account and strips it from every allow-list. The
// superuser and the caller's own account are protected.
func (s *UserService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleSuperuser || user.ID == actor.UserID {
		return domain.ErrProtectedUser
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	n, err := s.communities.RemoveAllowedUser(ctx, user.Username)
	if err != nil {
		return fmt.Errorf("remove %s from allow-lists: %w", user.Username, err)
	}

	s.log.Info().Str("username", user.Username).Int64("communities", n).Msg("user deleted")
	return nil
}

// ToggleRole flips user<->admin. A promoted admin is removed from every
// allow-list; demotion does not restore former memberships.
func (s *UserService) ToggleRole(ctx context.Context, actor domain.Principal, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleSuperuser || user.ID == actor.UserID {
		return nil, domain.ErrProtectedUser
	}

	next := domain.RoleAdmin
	if user.Role == domain.RoleAdmin {
		next = domain.RoleUser
	}
	if err := s.users.UpdateRole(ctx, id, next); err != nil {
		return nil, err
	}
	user.Role = next

	if next == domain.RoleAdmin {
		n, err := s.communities.RemoveAllowedUser(ctx, user.Username)
		if err != nil {
			return nil, fmt.Errorf("remove %s from allow-lists: %w", user.Username, err)
		}
		s.log.Info().Str("username", user.Username).Int64("communities", n).Msg("promoted to admin")
	} else {
		s.log.Info().Str("username", user.Username).Msg("demoted to user")
	}
	return user, nil
}

func (s *UserService) EnsureSuperuser(ctx context.Context, username, password string) (*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Role == domain.RoleSuperuser {
			return &users[i], domain.ErrSuperuserExists
		}
	}
	return s.create(ctx, ports.CreateUserInput{Username: username, Password: password, Role: domain.RoleSuperuser})
}

func validateCredentials(username, password string) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	case strings.ContainsAny(username, " \t\r\n"):
		return fmt.Errorf("%w: username must not contain spaces", domain.ErrInvalidInput)
	case len(username) > maxUsernameLen:
		return fmt.Errorf("%w: username must be at most %d characters", domain.ErrInvalidInput, maxUsernameLen)
	case len(password) < minPasswordLen:
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}
	return nil
}
