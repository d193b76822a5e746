package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/konta-pos/konta-pos/internal/app"
	"github.com/konta-pos/konta-pos/internal/billing"
	"github.com/konta-pos/konta-pos/internal/dian"
	"github.com/konta-pos/konta-pos/internal/masterdata/customers"
	"github.com/konta-pos/konta-pos/internal/reports"
	"github.com/konta-pos/konta-pos/internal/shared"
	"github.com/konta-pos/konta-pos/jobs"
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

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	idemStore := shared.NewIdempotencyStore(pool)

	reportsCache := reports.NewCache(redisClient, 10*time.Minute)
	reportsService := reports.NewService(reports.NewRepository(pool), reportsCache)

	billingRepo := billing.NewRepository(pool)
	customersService := customers.NewService(customers.NewRepository(pool))
	dianGenerator := dian.NewGenerator(dian.CompanyInfo{
		Name:             cfg.DianCompanyName,
		NIT:              cfg.DianCompanyNIT,
		ResolutionNumber: cfg.DianResolutionNumber,
		InvoicePrefix:    cfg.DianInvoicePrefix,
	})
	dianService := dian.NewService(dianGenerator, dian.NewUnsignedSigner(), billingRepo, customersService, dian.NewDocumentStore(pool), logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDianReport, Handler: jobs.NewDianReportHandler(dianService, logger)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(idemStore, logger)},
			{Type: jobs.TaskReportsWarmup, Handler: jobs.NewReportsWarmupHandler(reportsService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 5 * * *", Task: jobs.NewReportsWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
