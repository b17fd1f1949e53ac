package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/eresidence/eresidence/internal/app"
	"github.com/eresidence/eresidence/internal/iuran"
	"github.com/eresidence/eresidence/internal/iuran/categories"
	jobmetrics "github.com/eresidence/eresidence/internal/jobs"
	"github.com/eresidence/eresidence/internal/platform/db"
	"github.com/eresidence/eresidence/jobs"
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

	iuranRepo := iuran.NewRepository(pool)
	categoriesRepo := categories.NewRepository(pool)
	metrics := jobmetrics.NewMetrics(nil)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	iuranTasks := jobs.NewIuranTasks(logger, iuranRepo, categoriesRepo, metrics, jobClient)
	mailer := jobs.NewMailer(logger, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	overdueTask, err := jobs.NewOverdueScanTask(time.Now())
	if err != nil {
		logger.Error("build overdue task", slog.Any("error", err))
		os.Exit(1)
	}
	duesTask, err := jobs.NewGenerateDuesTask(time.Now())
	if err != nil {
		logger.Error("build dues task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailer.HandleSendEmail},
			{Type: jobs.TaskOverdueScan, Handler: iuranTasks.HandleOverdueScan},
			{Type: jobs.TaskGenerateDues, Handler: iuranTasks.HandleGenerateDues},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.OverdueScanCron, Task: overdueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.GenerateDuesCron, Task: duesTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
