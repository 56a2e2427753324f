package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/curastock/curastock/internal/app"
	jobmetrics "github.com/curastock/curastock/internal/jobs"
	"github.com/curastock/curastock/internal/ledger"
	"github.com/curastock/curastock/internal/observability"
	"github.com/curastock/curastock/internal/platform/cache"
	"github.com/curastock/curastock/internal/platform/db"
	"github.com/curastock/curastock/internal/reports"
	"github.com/curastock/curastock/internal/shared"
	"github.com/curastock/curastock/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
	client := asynq.NewClient(redisOpts)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	idemStore := shared.NewIdempotencyStore(pool)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	ledgerRepo := ledger.NewRepository(pool)
	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, ledgerRepo, reportCache)

	tracking := jobmetrics.NewMetrics(metrics.Registerer())

	lowStockJob := jobs.NewLowStockScanJob(reportsService, client, logger, metrics, tracking, cfg.AlertRecipient)
	ledgerVerifyJob := jobs.NewLedgerVerifyJob(reportsService, logger, metrics, tracking)
	cleanupJob := jobs.NewIdempotencyCleanupJob(idemStore, logger, tracking)

	lowStockTask, err := jobs.NewLowStockScanTask(time.Now().UTC())
	if err != nil {
		logger.Error("build low-stock task", slog.Any("error", err))
		os.Exit(1)
	}
	verifyTask, err := jobs.NewLedgerVerifyTask(time.Now().UTC())
	if err != nil {
		logger.Error("build ledger verify task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyRetention)
	if err != nil {
		logger.Error("build idempotency cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
			{Type: jobs.TaskLedgerVerify, Handler: ledgerVerifyJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.LowStockScanCron, Task: lowStockTask},
			{Spec: cfg.LedgerVerifyCron, Task: verifyTask},
			{Spec: cfg.IdempotencyCleanCron, Task: cleanupTask},
		},
	})
	if err != nil {
		logger.Error("configure worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting",
		slog.String("low_stock_cron", cfg.LowStockScanCron),
		slog.String("ledger_verify_cron", cfg.LedgerVerifyCron),
		slog.String("idempotency_clean_cron", cfg.IdempotencyCleanCron),
	)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shutdown complete")
}
