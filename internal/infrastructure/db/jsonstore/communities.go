package jsonstore

import (
	"context"
	"slices"
	"time"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

// CommunityRepository implements ports.CommunityRepository.
type CommunityRepository struct {
	s *Store
}

func (r *CommunityRepository) all() ([]domain.Community, error) {
	var list []domain.Community
	if err := r.s.load(collectionCommunities, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CommunityRepository) List(_ context.Context) ([]domain.Community, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list, err := r.all()
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Community{}
	}
	return list, nil
}

func (r *CommunityRepository) FindByID(_ context.Context, id string) (*domain.Community, error) {
	return r.find(func(c domain.Community) bool { return c.ID == id })
}

func (r *CommunityRepository) FindByName(_ context.Context, name string) (*domain.Community, error) {
	return r.find(func(c domain.Community) bool { return c.Name == name })
}

func (r *CommunityRepository) find(match func(domain.Community) bool) (*domain.Community, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list, err := r.all()
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(list, match)
	if i < 0 {
		return nil, domain.ErrCommunityNotFound
	}
	c := list[i]
	return &c, nil
}

// Create checks the name and the cap under the store lock.
func (r *CommunityRepository) Create(_ context.Context, c *domain.Community, limit int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list, err := r.all()
	if err != nil {
		return err
	}
	if slices.ContainsFunc(list, func(x domain.Community) bool { return x.Name == c.Name }) {
		return domain.ErrCommunityExists
	}
	if limit > 0 && len(list) >= limit {
		return domain.ErrCommunityLimit
	}
	return r.s.save(collectionCommunities, append(list, *c))
}

func (r *CommunityRepository) Update(_ context.Context, c *domain.Community) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list, err := r.all()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(list, func(x domain.Community) bool { return x.ID == c.ID })
	if i < 0 {
		return domain.ErrCommunityNotFound
	}
	if list[i].Version != c.Version {
		return domain.ErrConflict
	}

	next := *c
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	list[i] = next
	if err := r.s.save(collectionCommunities, list); err != nil {
		return err
	}
	c.Version, c.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

// DeleteWithLogs removes the community and its access logs in one locked
// cycle. Logs are written before the community, so a failed write never
// leaves logs behind without their community.
func (r *CommunityRepository) DeleteWithLogs(_ context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list, err := r.all()
	if err != nil {
		return 0, err
	}
	i := slices.IndexFunc(list, func(x domain.Community) bool { return x.ID == id })
	if i < 0 {
		return 0, domain.ErrCommunityNotFound
	}
	logs, err := (&AccessLogRepository{s: r.s}).all()
	if err != nil {
		return 0, err
	}

	name := list[i].Name
	removed := int64(len(logs[name]))
	delete(logs, name)
	err = r.s.saveAll(
		record{collectionAccessLogs, logs},
		record{collectionCommunities, slices.Delete(list, i, i+1)},
	)
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *CommunityRepository) RemoveAllowedUser(_ context.Context, username string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list, err := r.all()
	if err != nil {
		return 0, err
	}
	var changed int64
	now := time.Now().UTC()
	for i := range list {
		if list[i].RemoveAllowedUser(username) {
			list[i].Version++
			list[i].UpdatedAt = now
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, r.s.save(collectionCommunities, list)
}
