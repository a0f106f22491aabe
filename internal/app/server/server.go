package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hospitalpay/internal/domain/audit"
	"hospitalpay/internal/domain/auth"
	"hospitalpay/internal/domain/payroll"
	"hospitalpay/internal/domain/subscription"
	"hospitalpay/internal/platform/cache"
	"hospitalpay/internal/platform/config"
	cryptoutil "hospitalpay/internal/platform/crypto"
	"hospitalpay/internal/platform/db"
	"hospitalpay/internal/platform/jobs"
	"hospitalpay/internal/platform/logging"
	"hospitalpay/internal/platform/metrics"
	"hospitalpay/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

// Run loads configuration, prepares the database and serves the API until ctx is
// cancelled, then drains in-flight requests and background jobs.
func Run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	restoreGlobals := zap.ReplaceGlobals(logger)
	defer restoreGlobals()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations", logger); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
	} else {
		logger.Info("REDIS_URL not set, entitlement cache disabled")
	}

	deps, err := buildDeps(cfg, logger, pool, redisClient)
	if err != nil {
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	runner := jobs.New(pool, logger, deps.Metrics)
	runner.Start(runCtx, deps.Subscriptions, cfg.SubscriptionSweepInterval)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("hospitalpay server listening", zap.String("addr", cfg.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		stop()
		runner.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	stop()
	runner.Wait()
	return nil
}

func buildDeps(cfg config.Config, logger *zap.Logger, pool *pgxpool.Pool, redisClient *redis.Client) (Deps, error) {
	collector := metrics.New()
	auditLog := audit.New(pool)

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return Deps{}, fmt.Errorf("DATA_ENCRYPTION_KEY: %w", err)
	}

	rules, err := cfg.PayrollRules()
	if err != nil {
		return Deps{}, err
	}
	payrollStore := payroll.NewStore(pool)
	payrollSvc, err := payroll.NewService(payrollStore, payrollStore, rules,
		payroll.WithCrypto(crypto),
		payroll.WithAudit(auditLog),
		payroll.WithMetrics(collector),
		payroll.WithLogger(logger),
	)
	if err != nil {
		return Deps{}, err
	}

	policy, err := cfg.LimitPolicy()
	if err != nil {
		return Deps{}, err
	}
	subOpts := []subscription.Option{
		subscription.WithAudit(auditLog),
		subscription.WithMetrics(collector),
		subscription.WithLogger(logger),
		subscription.WithPolicy(policy),
	}
	if redisClient != nil {
		subOpts = append(subOpts, subscription.WithCache(subscription.NewRedisCache(redisClient, cfg.EntitlementCacheTTL)))
	}
	subscriptionSvc, err := subscription.NewService(subscription.NewStore(pool), subOpts...)
	if err != nil {
		return Deps{}, err
	}

	ready := func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}

	return Deps{
		Config:        cfg,
		Logger:        logger,
		Metrics:       collector,
		Perms:         auth.NewStore(pool),
		Auth:          auth.NewService(auth.NewStore(pool), cfg.JWTSecret, logger),
		Payroll:       payrollSvc,
		Subscriptions: subscriptionSvc,
		Audit:         auditLog,
		Idempotency:   middleware.NewIdempotencyStore(pool),
		Ready:         ready,
	}, nil
}
