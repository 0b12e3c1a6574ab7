package jsonstore

import (
	"context"
	"slices"
	"time"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

// userRecord is the on-disk shape; domain.User hides the hash from JSON.
type userRecord struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"password"`
	Role         domain.Role `json:"role"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func (r userRecord) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
	}
}

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) all() ([]userRecord, error) {
	var records []userRecord
	if err := r.s.load(collectionUsers, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	records, err := r.all()
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(records))
	for _, rec := range records {
		users = append(users, rec.toDomain())
	}
	return users, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(rec userRecord) bool { return rec.ID == id })
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	name := domain.NormalizeUsername(username)
	return r.find(func(rec userRecord) bool { return domain.NormalizeUsername(rec.Username) == name })
}

func (r *UserRepository) find(match func(userRecord) bool) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	records, err := r.all()
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(records, match)
	if i < 0 {
		return nil, domain.ErrUserNotFound
	}
	u := records[i].toDomain()
	return &u, nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	records, err := r.all()
	if err != nil {
		return err
	}
	name := domain.NormalizeUsername(user.Username)
	if slices.ContainsFunc(records, func(rec userRecord) bool { return domain.NormalizeUsername(rec.Username) == name }) {
		return domain.ErrUserExists
	}
	records = append(records, userRecord{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		CreatedAt:    user.CreatedAt,
	})
	return r.s.save(collectionUsers, records)
}

func (r *UserRepository) UpdateRole(_ context.Context, id string, role domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	records, err := r.all()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(records, func(rec userRecord) bool { return rec.ID == id })
	if i < 0 {
		return domain.ErrUserNotFound
	}
	records[i].Role = role
	return r.s.save(collectionUsers, records)
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	records, err := r.all()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(records, func(rec userRecord) bool { return rec.ID == id })
	if i < 0 {
		return domain.ErrUserNotFound
	}
	return r.s.save(collectionUsers, slices.Delete(records, i, i+1))
}
