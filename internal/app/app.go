// Package app assembles the service from configuration: storage backend,
// debounce store, services and HTTP router.
package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/gatehouse/accessadmin/internal/api"
	"github.com/gatehouse/accessadmin/internal/api/session"
	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/core/ports"
	"github.com/gatehouse/accessadmin/internal/core/service"
	"github.com/gatehouse/accessadmin/internal/infrastructure/db/jsonstore"
	"github.com/gatehouse/accessadmin/internal/infrastructure/db/mongo"
	"github.com/gatehouse/accessadmin/internal/infrastructure/db/redis"
	"github.com/gatehouse/accessadmin/internal/infrastructure/memory"
	"github.com/gatehouse/accessadmin/internal/infrastructure/ratelimit"
	"github.com/gatehouse/accessadmin/internal/pkg/config"
)

// App holds the wired services and the resources they depend on.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	Auth        *service.AuthService
	Users       *service.UserService
	Communities *service.CommunityService
	Access      ports.AccessService

	secret      []byte
	pageLimiter echomiddleware.RateLimiterStore
	health      map[string]ports.Pinger
	closers     []func(context.Context) error
}

type repositories struct {
	users       ports.UserRepository
	communities ports.CommunityRepository
	logs        ports.AccessLogRepository
	pinger      ports.Pinger
}

// New opens the configured backends and builds the services. Close releases
// them.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, health: make(map[string]ports.Pinger)}

	repos, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.health["store"] = repos.pinger

	var throttle ports.AccessThrottle
	if cfg.Redis.Enabled {
		rc, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
		a.health["redis"] = rc
		throttle = redis.NewAccessThrottle(rc, cfg.AccessDebounce)
		a.pageLimiter, err = redis.NewRateLimitStore(rc, cfg.RateLimit.Requests, cfg.RateLimit.Window, log)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis enabled for debounce and rate limiting")
	} else {
		throttle = memory.NewAccessThrottle(cfg.AccessDebounce, nil)
		a.pageLimiter = ratelimit.NewMemory(cfg.RateLimit.Requests, cfg.RateLimit.Window, log)
	}

	a.secret, err = sessionSecret(cfg, log)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Auth = service.NewAuthService(repos.users, log)
	a.Users = service.NewUserService(repos.users, repos.communities, cfg.BcryptCost, log)
	a.Communities = service.NewCommunityService(repos.communities, repos.users, cfg.MaxCommunities, log)
	a.Access = service.NewAccessService(repos.communities, repos.logs, throttle, log)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (*repositories, error) {
	switch a.cfg.Store.Backend {
	case config.BackendMongo:
		store, err := mongo.Open(ctx, mongo.Config{URI: a.cfg.Mongo.URI, Database: a.cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		a.log.Info().Str("database", a.cfg.Mongo.Database).Msg("using mongodb store")
		return &repositories{store.Users(), store.Communities(), store.AccessLogs(), store}, nil
	case config.BackendDir:
		store, err := jsonstore.OpenDir(a.cfg.Store.Dir)
		if err != nil {
			return nil, err
		}
		a.log.Info().Str("dir", a.cfg.Store.Dir).Msg("using per-collection json store")
		return &repositories{store.Users(), store.Communities(), store.AccessLogs(), store}, nil
	default:
		store, err := jsonstore.OpenFile(a.cfg.Store.File)
		if err != nil {
			return nil, err
		}
		a.log.Info().Str("file", a.cfg.Store.File).Msg("using single-file json store")
		return &repositories{store.Users(), store.Communities(), store.AccessLogs(), store}, nil
	}
}

// sessionSecret returns the configured secret, or outside production a random
// one that invalidates sessions on restart.
func sessionSecret(cfg *config.Config, log zerolog.Logger) ([]byte, error) {
	if cfg.Session.Secret != "" {
		return []byte(cfg.Session.Secret), nil
	}
	if cfg.IsProduction() {
		return nil, errors.New("SESSION_SECRET is required in production")
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	log.Warn().Msg("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	return secret, nil
}

// Router returns the HTTP handler. metrics enables the Prometheus middleware
// and must be true for at most one router per process.
func (a *App) Router(metrics bool) *echo.Echo {
	return api.NewRouter(api.Dependencies{
		Auth:        a.Auth,
		Users:       a.Users,
		Communities: a.Communities,
		Access:      a.Access,
		Sessions:    session.NewStore(a.secret, a.cfg.Session.Secure, a.cfg.Session.TTL),
		CSRF:        session.NewCSRFSigner(session.DeriveKey(a.secret, "csrf"), a.cfg.Session.TTL),
		PageLimiter: a.pageLimiter,
		Health:      a.health,
		Log:         a.log,
		Metrics:     metrics,
	})
}

// BootstrapSuperuser creates the superuser from configuration when the
// credentials are set and no superuser exists yet.
func (a *App) BootstrapSuperuser(ctx context.Context) error {
	username, password := a.cfg.Superuser.Username, a.cfg.Superuser.Password
	if username == "" || password == "" {
		return nil
	}
	user, err := a.Users.EnsureSuperuser(ctx, username, password)
	if errors.Is(err, domain.ErrSuperuserExists) {
		a.log.Debug().Str("username", user.Username).Msg("superuser already present")
		return nil
	}
	return err
}

// Close releases backend connections in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
