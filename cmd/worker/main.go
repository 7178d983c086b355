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

	"github.com/odyssey-erp/pantry/internal/app"
	"github.com/odyssey-erp/pantry/internal/observability"
	"github.com/odyssey-erp/pantry/jobs"
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
	if !cfg.RedisEnabled() {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	backends, err := app.OpenBackends(ctx, cfg, logger)
	if err != nil {
		logger.Error("open backends", slog.Any("error", err))
		os.Exit(1)
	}
	defer backends.Close(logger)
	if backends.Redis == nil {
		logger.Error("worker requires a reachable redis")
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	services, err := app.NewServices(cfg, logger, backends, metrics)
	if err != nil {
		logger.Error("wire services", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	reportJob := jobs.NewLowStockReportJob(services.Purchasing, logger, metrics.Jobs())
	warmupJob := jobs.NewInsightsWarmupJob(services.Inventory, services.Advisor, logger, metrics.Jobs())

	reportTask, err := jobs.NewLowStockReportTask("", time.Now().UTC())
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockReport, Handler: reportJob.Handle},
			{Type: jobs.TaskInsightsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.LowStockCron, Task: reportTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if services.Advisor.Enabled() {
		err := services.Cache.ListenForInvalidation(ctx, func(unitID string) {
			if _, err := client.EnqueueInsightsWarmup(ctx, unitID); err != nil {
				logger.Warn("enqueue insights warmup", slog.String("unit", unitID), slog.Any("error", err))
			}
		})
		if err != nil {
			logger.Warn("subscribe stock changes", slog.Any("error", err))
		}
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
