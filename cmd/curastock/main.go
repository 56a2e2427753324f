package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/curastock/curastock/internal/app"
	"github.com/curastock/curastock/internal/ledger"
	"github.com/curastock/curastock/internal/observability"
	"github.com/curastock/curastock/internal/platform/cache"
	"github.com/curastock/curastock/internal/platform/db"
	"github.com/curastock/curastock/internal/registry"
	"github.com/curastock/curastock/internal/reports"
	reporthttp "github.com/curastock/curastock/internal/reports/http"
	"github.com/curastock/curastock/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idemStore := shared.NewIdempotencyStore(pool)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)

	registryRepo := registry.NewRepository(pool)
	registryService := registry.NewService(registryRepo, auditLogger, reportCache)
	registryHandler := registry.NewHandler(logger, registryService)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger, idemStore, metrics, reportCache)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, ledgerService, reportCache)
	reportsHandler := reporthttp.NewHandler(logger, reportsService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		RegistryHandler: registryHandler,
		LedgerHandler:   ledgerHandler,
		ReportsHandler:  reportsHandler,
		Pool:            pool,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", slog.Any("error", err))
	}
	logger.Info("shutdown complete")
}
