package jsonstore

import (
	"context"
	"slices"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

// AccessLogRepository implements ports.AccessLogRepository. Entries are
// stored keyed by community name, oldest first.
type AccessLogRepository struct {
	s *Store
}

func (r *AccessLogRepository) all() (map[string][]domain.AccessLog, error) {
	logs := map[string][]domain.AccessLog{}
	if err := r.s.load(collectionAccessLogs, &logs); err != nil {
		return nil, err
	}
	if logs == nil {
		logs = map[string][]domain.AccessLog{}
	}
	return logs, nil
}

func (r *AccessLogRepository) Append(_ context.Context, entry *domain.AccessLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	logs, err := r.all()
	if err != nil {
		return err
	}
	logs[entry.Community] = append(logs[entry.Community], *entry)
	return r.s.save(collectionAccessLogs, logs)
}

func (r *AccessLogRepository) ListByCommunity(_ context.Context, community string, limit int) ([]domain.AccessLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	logs, err := r.all()
	if err != nil {
		return nil, err
	}
	entries := slices.Clone(logs[community])
	slices.Reverse(entries)
	slices.SortStableFunc(entries, func(a, b domain.AccessLog) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
