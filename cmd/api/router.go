package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/inkfeed/inkfeed/internal/cache"
	"github.com/inkfeed/inkfeed/internal/config"
	"github.com/inkfeed/inkfeed/internal/handler"
	"github.com/inkfeed/inkfeed/internal/metrics"
	"github.com/inkfeed/inkfeed/internal/middleware"
	"github.com/inkfeed/inkfeed/internal/service"
)

// routerDeps collects what newRouter mounts.
type routerDeps struct {
	cfg     *config.Config
	logger  *slog.Logger
	auth    *service.AuthService
	feed    *service.FeedService
	health  *handler.HealthHandler
	metrics metrics.Snapshotter
	// limiter is nil when Redis is not configured.
	limiter *cache.Cache
}

// newRouter configures the chi router with all routes and middleware.
func newRouter(d routerDeps) *chi.Mux {
	cfg := d.cfg
	h := handler.New()
	authHandler := handler.NewAuthHandler(d.auth, d.logger)
	statusHandler := handler.NewStatusHandler(d.auth, d.logger)
	feedHandler := handler.NewFeedHandler(d.feed, d.logger, cfg.MaxUploadSize)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Operational endpoints
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", handler.NewMetricsHandler(d.metrics).Metrics)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  d.logger,
		Enabled: cfg.RateLimitAuthEnabled,
		RPS:     cfg.RateLimitAuthRPS,
		Burst:   cfg.RateLimitAuthBurst,
	}
	if d.limiter != nil {
		rateLimitCfg.Limiter = d.limiter
	}
	jsonBody := middleware.MaxBodySize(cfg.MaxRequestBodySize)

	// Credentials
	r.With(jsonBody, middleware.RateLimitAuth(rateLimitCfg, "signup")).Post("/signup", authHandler.Signup)
	r.With(jsonBody, middleware.RateLimitAuth(rateLimitCfg, "login")).Post("/login", authHandler.Login)

	// Public reads
	r.Get("/posts", feedHandler.List)
	r.Get("/posts/{postId}", feedHandler.Get)

	// Authenticated routes. Post bodies carry their own upload limit.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.auth, d.logger))

		r.Get("/status", statusHandler.Get)
		r.With(jsonBody).Patch("/status", statusHandler.Update)

		r.Post("/posts", feedHandler.Create)
		r.Put("/posts/{postId}", feedHandler.Update)
		r.Delete("/posts/{postId}", feedHandler.Delete)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
