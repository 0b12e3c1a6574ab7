package api

import (
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/gatehouse/accessadmin/docs"
	"github.com/gatehouse/accessadmin/internal/api/handler"
	"github.com/gatehouse/accessadmin/internal/api/middleware"
	"github.com/gatehouse/accessadmin/internal/api/session"
	"github.com/gatehouse/accessadmin/internal/core/ports"
	"github.com/gatehouse/accessadmin/internal/infrastructure/http/handlers"
	"github.com/gatehouse/accessadmin/internal/web"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Auth        ports.AuthService
	Users       ports.UserService
	Communities ports.CommunityService
	Access      ports.AccessService

	Sessions    sessions.Store
	CSRF        *session.CSRFSigner
	PageLimiter echomiddleware.RateLimiterStore
	// Health lists the dependencies checked by the readiness probe.
	Health map[string]ports.Pinger

	Log zerolog.Logger
	// Metrics registers the echoprometheus collectors and /metrics. It must
	// be enabled at most once per process.
	Metrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	if d.Metrics {
		e.Use(echoprometheus.NewMiddleware("accessadmin"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}
	e.Use(session.Middleware(d.Sessions))
	e.Use(middleware.CSRF(d.CSRF, middleware.SkipPaths("/api/log-access")))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.CSRF)
	communityHandler := handler.NewCommunityHandler(d.Communities)
	addressHandler := handler.NewAddressHandler(d.Communities)
	userHandler := handler.NewUserHandler(d.Users)
	accessHandler := handler.NewAccessHandler(d.Access)

	requireAuth := middleware.RequireAuth(d.Auth)
	requireAdmin := middleware.RequireAdmin()

	// --- Health probes and docs (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(d.Health).Readiness)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Pages (rate limited per client IP) ---
	assets := web.Assets()
	pageLimit := middleware.RateLimit(d.PageLimiter)
	e.GET("/", echo.StaticFileHandler("index.html", assets), pageLimit)
	e.GET("/login", echo.StaticFileHandler("login.html", assets), pageLimit)
	e.GET("/static/*", echo.StaticDirectoryHandler(assets, false), pageLimit)

	// --- Auth ---
	e.GET("/csrf-token", authHandler.CSRFToken)
	e.POST("/api/login", authHandler.Login)
	e.POST("/api/logout", authHandler.Logout, requireAuth)
	e.GET("/api/check-auth", authHandler.CheckAuth)

	// --- Game server ingestion ---
	e.POST("/api/log-access", accessHandler.Record)

	// --- Communities ---
	e.GET("/api/communities", communityHandler.List, requireAuth)
	e.POST("/api/communities", communityHandler.Create, requireAuth, requireAdmin)
	e.GET("/api/communities/:id", communityHandler.Get, requireAuth)
	e.DELETE("/api/communities/:id", communityHandler.Delete, requireAuth, requireAdmin)
	e.PUT("/api/communities/:id/allowed-users", communityHandler.SetAllowedUsers, requireAuth, requireAdmin)
	e.GET("/api/communities/:id/logs", accessHandler.Logs, requireAuth)

	// --- Addresses, residents, codes ---
	e.GET("/api/communities/:id/addresses", addressHandler.List, requireAuth)
	e.POST("/api/communities/:id/addresses", addressHandler.Create, requireAuth)
	e.GET("/api/communities/:id/addresses/:addressId", addressHandler.Get, requireAuth)
	e.DELETE("/api/communities/:id/addresses/:addressId", addressHandler.Delete, requireAuth)
	e.POST("/api/communities/:id/addresses/:addressId/people", addressHandler.AddPerson, requireAuth)
	e.DELETE("/api/communities/:id/addresses/:addressId/people/:personId", addressHandler.DeletePerson, requireAuth)
	e.POST("/api/communities/:id/addresses/:addressId/codes", addressHandler.AddCode, requireAuth)
	e.DELETE("/api/communities/:id/addresses/:addressId/codes/:codeId", addressHandler.DeleteCode, requireAuth)

	// --- Users ---
	e.GET("/api/users", userHandler.List, requireAuth, requireAdmin)
	e.POST("/api/users", userHandler.Create, requireAuth, requireAdmin)
	e.DELETE("/api/users/:id", userHandler.Delete, requireAuth, requireAdmin)
	e.PUT("/api/users/:id/role", userHandler.ToggleRole, requireAuth, requireAdmin)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
