package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/affinet/affinet/internal/app"
	jobmetrics "github.com/affinet/affinet/internal/jobs"
	"github.com/affinet/affinet/internal/platform/db"
	"github.com/affinet/affinet/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)
	maintenance := jobs.NewMaintenanceJobs(pool, logger, metrics)

	sweepTask, err := jobs.NewInvitationSweepTask(jobs.InvitationSweepPayload{Grace: 24 * time.Hour})
	if err != nil {
		logger.Error("build invitation sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	pruneTask, err := jobs.NewUsageLogPruneTask(jobs.UsageLogPrunePayload{Retention: cfg.UsageLogRetention})
	if err != nil {
		logger.Error("build usage prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInvitationSweep, Handler: maintenance.HandleInvitationSweep},
			{Type: jobs.TaskUsageLogPrune, Handler: maintenance.HandleUsageLogPrune},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * *", Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	// One immediate sweep at boot, so downtime across the cron slot does not
	// leave expired invitations sitting until tomorrow night.
	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	if _, err := client.Enqueue(ctx, sweepTask, asynq.MaxRetry(3)); err != nil {
		logger.Warn("enqueue startup sweep", slog.Any("error", err))
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
