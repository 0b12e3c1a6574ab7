package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
)

func TestMemory_FixedWindow(t *testing.T) {
	s := NewMemory(3, 200*time.Millisecond, zerolog.Nop())

	for i := 0; i < 3; i++ {
		ok, err := s.Allow("10.0.0.1")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, _ := s.Allow("10.0.0.1")
	require.False(t, ok)

	ok, _ = s.Allow("10.0.0.2")
	require.True(t, ok, "other clients are counted separately")

	require.Eventually(t, func() bool {
		ok, _ := s.Allow("10.0.0.1")
		return ok
	}, 2*time.Second, 20*time.Millisecond, "a new window resets the counter")
}

// brokenStore fails every operation.
type brokenStore struct{ limiter.Store }

func (brokenStore) Get(context.Context, string, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("connection refused")
}

func (brokenStore) Increment(context.Context, string, int64, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("connection refused")
}

func TestStore_FailsOpen(t *testing.T) {
	s := New(brokenStore{}, 1, time.Minute, zerolog.Nop())
	for i := 0; i < 3; i++ {
		ok, err := s.Allow("10.0.0.1")
		require.NoError(t, err)
		require.True(t, ok)
	}
}
