// Package memory holds the single-process access debounce, used when Redis
// is not configured. State is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// AccessThrottle is an in-process debounce keyed by (community, player).
// Entries are go-cache items holding the end of their window.
type AccessThrottle struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	items  *cache.Cache
}

// NewAccessThrottle returns a throttle with the given window. now may be nil
// to use time.Now.
func NewAccessThrottle(window time.Duration, now func() time.Time) *AccessThrottle {
	if now == nil {
		now = time.Now
	}
	return &AccessThrottle{
		window: window,
		now:    now,
		items:  cache.New(window, 2*window),
	}
}

func (t *AccessThrottle) Allow(_ context.Context, community, player string) (bool, error) {
	key := community + "\x00" + player
	now := t.now()
	deadline := now.Add(t.window)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.items.Add(key, deadline, t.window); err == nil {
		return true, nil
	}
	// A live item exists; the injected clock decides whether its window
	// has passed.
	if v, ok := t.items.Get(key); ok && now.Before(v.(time.Time)) {
		return false, nil
	}
	t.items.Set(key, deadline, t.window)
	return true, nil
}
