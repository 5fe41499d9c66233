package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/epicevents/crm/pkg/api"
	"github.com/epicevents/crm/pkg/auth"
	"github.com/epicevents/crm/pkg/config"
	"github.com/epicevents/crm/pkg/httputil"
	"github.com/epicevents/crm/pkg/middleware"
	"github.com/epicevents/crm/pkg/observability"
	"github.com/epicevents/crm/pkg/storage"
	"github.com/epicevents/crm/pkg/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"port":        cfg.Server.Port,
		"health_port": cfg.Server.HealthPort,
	}).Info("starting crmd")

	db, err := connectDatabase(cfg)
	if err != nil {
		logger.WithError(err).Error("database connection failed")
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	defer cancel()
	if err := postgres.RunMigrations(ctx, db); err != nil {
		logger.WithError(err).Error("migrations failed")
		os.Exit(1)
	}
	logger.Info("migrations applied")

	pgStore := postgres.NewStore(db)

	authManager, err := auth.NewManager(db, cfg.Auth.TokenCacheSize)
	if err != nil {
		logger.WithError(err).Error("auth manager initialization failed")
		os.Exit(1)
	}

	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	var store storage.Store = pgStore
	if metrics != nil {
		store = storage.NewInstrumentedStore(pgStore, metrics)
	}

	server := api.NewServer(store, logger, metrics)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerMinute,
		WindowDuration:    time.Minute,
	})
	authMW := middleware.NewAuthMiddleware(authManager)

	middlewares := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware,
		middleware.RequestIDMiddleware,
	}
	if metrics != nil {
		middlewares = append(middlewares, observability.HTTPMetricsMiddleware(metrics))
	}
	middlewares = append(middlewares, authMW.Handler, middleware.RateLimitMiddleware(limiter))
	handler := httputil.Chain(server, middlewares...)

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics live on their own port so load balancers and
	// scrapers never pass through auth or rate limiting.
	opsMux := http.NewServeMux()
	observability.RegisterHealthRoutes(opsMux, observability.NewHealthChecker(db))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(opsMux, registry)
	}
	opsServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:      opsMux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Auth.TokenCleanupSchedule, func() {
		defer observability.RecoverPanic(logger, "token cleanup")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
		defer cancel()
		removed, err := authManager.CleanupExpiredTokens(ctx)
		if err != nil {
			logger.WithError(err).Error("token cleanup failed")
			return
		}
		if removed > 0 {
			logger.WithField("removed", removed).Info("expired tokens removed")
		}
	})
	if err != nil {
		logger.WithError(err).Error("invalid token cleanup schedule")
		os.Exit(1)
	}
	if metrics != nil {
		_, err = scheduler.AddFunc("@every 1m", func() {
			defer observability.RecoverPanic(logger, "gauge refresh")
			refreshGauges(db, pgStore, metrics, logger, cfg.Database.Timeout)
		})
		if err != nil {
			logger.WithError(err).Error("scheduling gauge refresh failed")
			os.Exit(1)
		}
	}
	scheduler.Start()

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, opsServer)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		stopped := scheduler.Stop()
		select {
		case <-stopped.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	var group errgroup.Group
	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", opsServer.Addr).Info("health server listening")
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return shutdown.WaitForShutdown()
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logger.Info("crmd stopped")
}

func refreshGauges(db *sql.DB, store *postgres.Store, metrics *observability.Metrics, logger *observability.Logger, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	counts, err := store.Counts(ctx)
	if err != nil {
		logger.WithError(err).Warn("refreshing business gauges failed")
		return
	}
	metrics.ClientsTotal.Set(float64(counts.Clients))
	metrics.ClientsConvertedTotal.Set(float64(counts.ClientsConverted))
	metrics.ContractsTotal.Set(float64(counts.Contracts))
	metrics.ContractsSignedTotal.Set(float64(counts.ContractsSigned))
	metrics.EventsTotal.Set(float64(counts.Events))
	metrics.ActiveUsersTotal.Set(float64(counts.ActiveUsers))
	metrics.APITokensActive.Set(float64(counts.ActiveTokens))

	stats := db.Stats()
	metrics.DBConnectionsActive.Set(float64(stats.InUse))
	metrics.DBConnectionsIdle.Set(float64(stats.Idle))
}

func connectDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}
