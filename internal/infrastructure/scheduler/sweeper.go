package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatehouse/accessadmin/internal/api/metrics"
)

const defaultInterval = time.Minute

// CodeSweeper is the part of the community service the sweeper drives.
type CodeSweeper interface {
	SweepExpiredCodes(ctx context.Context, now time.Time) (int, error)
}

// Sweeper periodically removes expired access codes.
type Sweeper struct {
	target   CodeSweeper
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper creates a Sweeper. If interval <= 0, defaultInterval is used.
func NewSweeper(target CodeSweeper, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{target: target, interval: interval, log: log}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

// RunOnce performs a single sweep and records its outcome.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	started := time.Now()
	removed, err := s.target.SweepExpiredCodes(ctx, started.UTC())
	metrics.SweepDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.SweepErrorsTotal.Inc()
		return removed, err
	}
	metrics.CodesSweptTotal.Add(float64(removed))
	return removed, nil
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("code sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("code sweeper stopped")
			return
		case <-ticker.C:
			removed, err := s.RunOnce(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("code sweep failed")
				continue
			}
			if removed > 0 {
				s.log.Info().Int("removed", removed).Msg("expired codes removed")
			}
		}
	}
}
