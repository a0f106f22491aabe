package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hospitalpay/internal/domain/auth"
	"hospitalpay/internal/domain/payroll"
	"hospitalpay/internal/domain/subscription"
	"hospitalpay/internal/platform/config"
	"hospitalpay/internal/platform/metrics"
	audithandler "hospitalpay/internal/transport/http/handlers/audit"
	authhandler "hospitalpay/internal/transport/http/handlers/auth"
	payrollhandler "hospitalpay/internal/transport/http/handlers/payroll"
	subscriptionhandler "hospitalpay/internal/transport/http/handlers/subscription"
	"hospitalpay/internal/transport/http/middleware"
)

// Deps are the services the HTTP surface is assembled from.
type Deps struct {
	Config        config.Config
	Logger        *zap.Logger
	Metrics       *metrics.Collector
	Perms         middleware.PermissionStore
	Auth          *auth.Service
	Payroll       *payroll.Service
	Subscriptions *subscription.Service
	Audit         audithandler.EventReader
	Idempotency   middleware.IdempotencyBackend
	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.AccessLog(logger, deps.Metrics))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				logger.Warn("readiness check failed", zap.Error(err))
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled && deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		limiterLog := middleware.WithRateLimitLogger(logger.Named("ratelimit"))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, limiterLog))
		r.Use(middleware.SensitiveRateLimit(cfg.RateLimitPerMinute, time.Minute, limiterLog))

		authHandler := authhandler.NewHandler(deps.Auth, logger)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.Get("/auth/me", authHandler.HandleMe)

		payrollhandler.NewHandler(deps.Payroll, deps.Perms, deps.Idempotency, logger).RegisterRoutes(r)
		subscriptionhandler.NewHandler(deps.Subscriptions, deps.Perms, logger).RegisterRoutes(r)
		if deps.Audit != nil {
			audithandler.NewHandler(deps.Audit, deps.Perms, logger).RegisterRoutes(r)
		}
	})

	return router
}
