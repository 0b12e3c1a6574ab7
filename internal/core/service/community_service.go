package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/core/ports"
)

// maxMutateAttempts bounds the optimistic-concurrency retry loop.
const maxMutateAttempts = 3

type CommunityService struct {
	communities    ports.CommunityRepository
	users          ports.UserRepository
	maxCommunities int
	log            zerolog.Logger
}

// NewCommunityService returns a CommunityService. maxCommunities <= 0 falls
// back to domain.DefaultMaxCommunities.
func NewCommunityService(
	communities ports.CommunityRepository,
	users ports.UserRepository,
	maxCommunities int,
	log zerolog.Logger,
) *CommunityService {
	if maxCommunities <= 0 {
		maxCommunities = domain.DefaultMaxCommunities
	}
	return &CommunityService{
		communities:    communities,
		users:          users,
		maxCommunities: maxCommunities,
		log:            log,
	}
}

func (s *CommunityService) List(ctx context.Context, viewer domain.Principal) ([]domain.Community, error) {
	all, err := s.communities.List(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.Community, 0, len(all))
	for _, c := range all {
		if c.VisibleTo(viewer) {
			c.Normalize()
			visible = append(visible, c)
		}
	}
	return visible, nil
}

func (s *CommunityService) Get(ctx context.Context, viewer domain.Principal, id string) (*domain.Community, error) {
	c, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(viewer) {
		return nil, domain.ErrForbidden
	}
	c.Normalize()
	return c, nil
}

// Create adds an empty community. The repository enforces the system-wide
// cap atomically with the insert.
func (s *CommunityService) Create(ctx context.Context, name string) (*domain.Community, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateCommunityName(name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.Community{
		ID:           uuid.New().String(),
		Name:         name,
		Addresses:    []domain.Address{},
		AllowedUsers: []string{},
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.communities.Create(ctx, c, s.maxCommunities); err != nil {
		if errors.Is(err, domain.ErrCommunityLimit) {
			return nil, fmt.Errorf("%w (max %d)", err, s.maxCommunities)
		}
		return nil, err
	}

	s.log.Info().Str("community", name).Str("id", c.ID).Msg("community created")
	return c, nil
}

func (s *CommunityService) Delete(ctx context.Context, id string) error {
	c, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return err
	}
	removed, err := s.communities.DeleteWithLogs(ctx, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.Name, err)
	}

	s.log.Info().Str("community", c.Name).Int64("logs_removed", removed).Msg("community deleted")
	return nil
}

// SetAllowedUsers replaces the allow-list. Names that do not resolve to an
// existing regular user are dropped and reported back.
func (s *CommunityService) SetAllowedUsers(ctx context.Context, id string, usernames []string) (*ports.AllowedUsersResult, error) {
	valid := make([]string, 0, len(usernames))
	invalid := []string{}
	for _, raw := range usernames {
		name := domain.NormalizeUsername(raw)
		if name == "" || slices.Contains(valid, name) || slices.Contains(invalid, name) {
			continue
		}
		u, err := s.users.FindByUsername(ctx, name)
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			invalid = append(invalid, name)
		case err != nil:
			return nil, err
		case u.Role.IsAdmin():
			invalid = append(invalid, name)
		default:
			valid = append(valid, name)
		}
	}

	c, err := s.mutate(ctx, id, func(c *domain.Community) (bool, error) {
		c.AllowedUsers = valid
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("community", c.Name).Strs("allowed", valid).Strs("invalid", invalid).Msg("allow-list updated")
	c.Normalize()
	return &ports.AllowedUsersResult{Community: c, InvalidUsers: invalid}, nil
}

func (s *CommunityService) ListAddresses(ctx context.Context, viewer domain.Principal, id string) ([]domain.Address, error) {
	c, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	return c.Addresses, nil
}

func (s *CommunityService) GetAddress(ctx context.Context, viewer domain.Principal, id, addressID string) (*domain.Address, error) {
	c, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	return c.Address(addressID)
}

func (s *CommunityService) AddAddress(ctx context.Context, viewer domain.Principal, id, street string) (*domain.Address, error) {
	street = strings.TrimSpace(street)
	if street == "" {
		return nil, fmt.Errorf("%w: street is required", domain.ErrInvalidInput)
	}

	addr := domain.Address{
		ID:        uuid.New().String(),
		Street:    street,
		People:    []domain.Person{},
		Codes:     []domain.Code{},
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.mutateVisible(ctx, viewer, id, func(c *domain.Community) (bool, error) {
		c.Addresses = append(c.Addresses, addr)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func (s *CommunityService) DeleteAddress(ctx context.Context, viewer domain.Principal, id, addressID string) error {
	_, err := s.mutateVisible(ctx, viewer, id, func(c *domain.Community) (bool, error) {
		before := len(c.Addresses)
		c.Addresses = slices.DeleteFunc(c.Addresses, func(a domain.Address) bool { return a.ID == addressID })
		if len(c.Addresses) == before {
			return false, domain.ErrAddressNotFound
		}
		return true, nil
	})
	return err
}

func (s *CommunityService) AddPerson(ctx context.Context, viewer domain.Principal, id, addressID string, in ports.PersonInput) (*domain.Person, error) {
	p := domain.Person{
		ID:       uuid.New().String(),
		Username: strings.TrimSpace(in.Username),
		PlayerID: strings.TrimSpace(in.PlayerID),
	}
	if p.Username == "" || p.PlayerID == "" {
		return nil, fmt.Errorf("%w: username and playerId are required", domain.ErrInvalidInput)
	}

	_, err := s.mutateVisible(ctx, viewer, id, func(c *domain.Community) (bool, error) {
		addr, err := c.Address(addressID)
		if err != nil {
			return false, err
		}
		addr.People = append(addr.People, p)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CommunityService) DeletePerson(ctx context.Context, viewer domain.Principal, id, addressID, personID string) error {
	_, err := s.mutateVisible(ctx, viewer, id, func(c *domain.Community) (bool, error) {
		addr, err := c.Address(addressID)
		if err != nil {
			return false, err
		}
		before := len(addr.People)
		addr.People = slices.DeleteFunc(addr.People, func(p domain.Person) bool { return p.ID == personID })
		if len(addr.People) == before {
			return false, domain.ErrPersonNotFound
		}
		return true, nil
	})
	return err
}

// AddCode attaches an access code. Codes already past expiry are accepted;
// the sweep removes them.
func (s *CommunityService) AddCode(ctx context.Context, viewer domain.Principal, id, addressID string, in ports.CodeInput) (*domain.Code, error) {
	code := domain.Code{
		ID:          uuid.New().String(),
		Description: strings.TrimSpace(in.Description),
		Code:        strings.TrimSpace(in.Code),
		ExpiresAt:   in.ExpiresAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	if code.Code == "" {
		return nil, fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}
	if in.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: expiresAt is required", domain.ErrInvalidInput)
	}

	_, err := s.mutateVisible(ctx, viewer, id, func(c *domain.Community) (bool, error) {
		addr, err := c.Address(addressID)
		if err != nil {
			return false, err
		}
		addr.Codes = append(addr.Codes, code)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (s *CommunityService) DeleteCode(ctx context.Context, viewer domain.Principal, id, addressID, codeID string) error {
	_, err := s.mutateVisible(ctx, viewer, id, func(c *domain.Community) (bool, error) {
		addr, err := c.Address(addressID)
		if err != nil {
			return false, err
		}
		before := len(addr.Codes)
		addr.Codes = slices.DeleteFunc(addr.Codes, func(k domain.Code) bool { return k.ID == codeID })
		if len(addr.Codes) == before {
			return false, domain.ErrCodeNotFound
		}
		return true, nil
	})
	return err
}

func (s *CommunityService) SweepExpiredCodes(ctx context.Context, now time.Time) (int, error) {
	all, err := s.communities.List(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, snapshot := range all {
		if !hasExpiredCodes(&snapshot, now) {
			continue
		}
		removed := 0
		_, err := s.mutate(ctx, snapshot.ID, func(c *domain.Community) (bool, error) {
			removed = 0
			for i := range c.Addresses {
				removed += c.Addresses[i].PruneExpiredCodes(now)
			}
			return removed > 0, nil
		})
		switch {
		case errors.Is(err, domain.ErrCommunityNotFound):
			continue
		case err != nil:
			return total, fmt.Errorf("sweep %s: %w", snapshot.Name, err)
		}
		if removed > 0 {
			s.log.Debug().Str("community", snapshot.Name).Int("removed", removed).Msg("expired codes swept")
		}
		total += removed
	}
	return total, nil
}

func hasExpiredCodes(c *domain.Community, now time.Time) bool {
	for _, a := range c.Addresses {
		for _, code := range a.Codes {
			if code.Expired(now) {
				return true
			}
		}
	}
	return false
}

// mutateVisible is mutate with a visibility check against viewer.
func (s *CommunityService) mutateVisible(
	ctx context.Context,
	viewer domain.Principal,
	id string,
	fn func(c *domain.Community) (bool, error),
) (*domain.Community, error) {
	return s.mutate(ctx, id, func(c *domain.Community) (bool, error) {
		if !c.VisibleTo(viewer) {
			return false, domain.ErrForbidden
		}
		return fn(c)
	})
}

// mutate loads the community, applies fn and writes it back conditionally
// on the loaded version, retrying on concurrent modification. fn reports
// whether it changed anything; unchanged documents are not written.
func (s *CommunityService) mutate(ctx context.Context, id string, fn func(c *domain.Community) (bool, error)) (*domain.Community, error) {
	for attempt := 1; ; attempt++ {
		c, err := s.communities.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		dirty, err := fn(c)
		if err != nil {
			return nil, err
		}
		if !dirty {
			return c, nil
		}

		err = s.communities.Update(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= maxMutateAttempts {
			return nil, err
		}
		s.log.Debug().Str("community_id", id).Int("attempt", attempt).Msg("version conflict, retrying")
	}
}
