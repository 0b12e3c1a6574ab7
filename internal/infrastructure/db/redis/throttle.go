package redis

import (
	"context"
	"fmt"
	"time"
)

// AccessThrottle debounces access reports with SET NX PX so concurrent
// instances share one window per (community, player).
// Key format: <prefix>:debounce:<community>:<player>
type AccessThrottle struct {
	client *Client
	window time.Duration
}

// NewAccessThrottle creates an AccessThrottle on the given client.
func NewAccessThrottle(client *Client, window time.Duration) *AccessThrottle {
	return &AccessThrottle{client: client, window: window}
}

// Allow claims the window for the pair; it fails while a claim is live.
func (t *AccessThrottle) Allow(ctx context.Context, community, player string) (bool, error) {
	key := t.client.key("debounce", community, player)
	ok, err := t.client.rdb.SetNX(ctx, key, "1", t.window).Result()
	if err != nil {
		return false, fmt.Errorf("debounce check: %w", err)
	}
	return ok, nil
}
