// Package ratelimit adapts ulule/limiter fixed-window stores to echo's
// middleware.RateLimiterStore.
package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
)

const storeTimeout = 2 * time.Second

// Store counts requests per identifier in fixed windows. A failing backend
// admits the request and logs a warning, matching the access debounce.
type Store struct {
	limiter *limiter.Limiter
	log     zerolog.Logger
}

// New wraps store with a limit of requests per window.
func New(store limiter.Store, limit int, window time.Duration, log zerolog.Logger) *Store {
	rate := limiter.Rate{Period: window, Limit: int64(limit)}
	return &Store{limiter: limiter.New(store, rate), log: log}
}

// NewMemory returns a single-process Store.
func NewMemory(limit int, window time.Duration, log zerolog.Logger) *Store {
	store := memorystore.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "ratelimit",
		CleanUpInterval: window,
	})
	return New(store, limit, window, log)
}

// Allow counts the request against the identifier's current window.
func (s *Store) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	res, err := s.limiter.Get(ctx, identifier)
	if err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("rate limit store unavailable, admitting request")
		return true, nil
	}
	return !res.Reached, nil
}
