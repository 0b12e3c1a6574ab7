package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/core/ports"
)

type accessService struct {
	communities ports.CommunityRepository
	logs        ports.AccessLogRepository
	throttle    ports.AccessThrottle
	log         zerolog.Logger
}

// NewAccessService returns an AccessService debouncing reports through throttle.
func NewAccessService(
	communities ports.CommunityRepository,
	logs ports.AccessLogRepository,
	throttle ports.AccessThrottle,
	log zerolog.Logger,
) ports.AccessService {
	return &accessService{
		communities: communities,
		logs:        logs,
		throttle:    throttle,
		log:         log,
	}
}

// Record validates the community, applies the debounce and appends the entry.
func (s *accessService) Record(ctx context.Context, in ports.AccessAttempt) (*domain.AccessLog, error) {
	in.Community = strings.TrimSpace(in.Community)
	in.Player = strings.TrimSpace(in.Player)
	in.Action = strings.TrimSpace(in.Action)
	if in.Community == "" || in.Player == "" || in.Action == "" {
		return nil, fmt.Errorf("%w: community, player and action are required", domain.ErrInvalidInput)
	}

	// 1. Community must exist.
	if _, err := s.communities.FindByName(ctx, in.Community); err != nil {
		return nil, err
	}

	// 2. Debounce. A broken throttle store must not block the game server.
	allowed, err := s.throttle.Allow(ctx, in.Community, in.Player)
	if err != nil {
		s.log.Warn().Err(err).Str("community", in.Community).Msg("debounce check failed, recording anyway")
	} else if !allowed {
		s.log.Debug().Str("community", in.Community).Str("player", in.Player).Msg("access report debounced")
		return nil, domain.ErrThrottled
	}

	// 3. Append.
	entry := &domain.AccessLog{
		ID:        uuid.New().String(),
		Community: in.Community,
		Player:    in.Player,
		Action:    in.Action,
		Timestamp: time.Now().UTC(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append access log: %w", err)
	}

	s.log.Info().
		Str("community", in.Community).
		Str("player", in.Player).
		Str("action", in.Action).
		Msg("access recorded")

	return entry, nil
}

// Logs accepts either a community id or its name.
func (s *accessService) Logs(ctx context.Context, viewer domain.Principal, idOrName string) ([]domain.AccessLog, error) {
	c, err := s.communities.FindByID(ctx, idOrName)
	if errors.Is(err, domain.ErrCommunityNotFound) {
		c, err = s.communities.FindByName(ctx, idOrName)
	}
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(viewer) {
		return nil, domain.ErrForbidden
	}

	entries, err := s.logs.ListByCommunity(ctx, c.Name, domain.MaxAccessLogs)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.AccessLog{}
	}
	return entries, nil
}
