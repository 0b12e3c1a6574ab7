package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Storage backends selectable through STORE_BACKEND.
const (
	BackendFile  = "file"
	BackendDir   = "dir"
	BackendMongo = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	MaxCommunities int           `env:"MAX_COMMUNITIES, default=8"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL,  default=60s"`
	AccessDebounce time.Duration `env:"ACCESS_DEBOUNCE, default=5s"`
	BcryptCost     int           `env:"BCRYPT_COST,     default=10"`

	Session   SessionConfig
	RateLimit RateLimitConfig
	Superuser SuperuserConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type SessionConfig struct {
	Secret string        `env:"SESSION_SECRET"`
	Secure bool          `env:"COOKIE_SECURE, default=true"`
	TTL    time.Duration `env:"SESSION_TTL,   default=24h"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS, default=100"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW,   default=15m"`
}

type SuperuserConfig struct {
	Username string `env:"SUPERUSER_USERNAME"`
	Password string `env:"SUPERUSER_PASSWORD"`
}

type StoreConfig struct {
	Backend string `env:"STORE_BACKEND, default=file"`
	File    string `env:"DATA_FILE,     default=data/db.json"`
	Dir     string `env:"DATA_DIR,      default=data"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=access_admin"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,  default=false"`
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsProduction reports whether ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendDir, BackendMongo:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.IsProduction() && c.Session.Secret == "" {
		return errors.New("config: SESSION_SECRET is required in production")
	}
	if c.Session.Secret != "" && len(c.Session.Secret) < 32 {
		return errors.New("config: SESSION_SECRET must be at least 32 bytes")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("config: rate limit requests and window must be positive")
	}
	return nil
}

// LoadWith reads configuration through the given lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from environment variables using go-envconfig.
// Outside production a .env file in the working directory is loaded first.
func Load(ctx context.Context) (*Config, error) {
	if os.Getenv("ENV") != "production" {
		_ = godotenv.Load()
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}
