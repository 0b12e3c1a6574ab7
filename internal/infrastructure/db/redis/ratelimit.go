package redis

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/gatehouse/accessadmin/internal/infrastructure/ratelimit"
)

// NewRateLimitStore returns a fixed-window page limiter shared by every
// instance using this Redis.
// Key format: <prefix>:ratelimit:<identifier>
func NewRateLimitStore(client *Client, limit int, window time.Duration, log zerolog.Logger) (*ratelimit.Store, error) {
	store, err := redisstore.NewStoreWithOptions(client.rdb, limiter.StoreOptions{
		Prefix: client.key("ratelimit"),
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}
	return ratelimit.New(store, limit, window, log), nil
}
