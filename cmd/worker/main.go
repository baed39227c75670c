package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/greenbasket/greenbasket/internal/app"
	"github.com/greenbasket/greenbasket/internal/cart"
	jobmetrics "github.com/greenbasket/greenbasket/internal/jobs"
	"github.com/greenbasket/greenbasket/internal/platform/cache"
	"github.com/greenbasket/greenbasket/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var mailer jobs.Mailer
	if cfg.SMTPHost != "" {
		mailer = jobs.NewSMTPMailer(fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort), cfg.SMTPFrom)
	} else {
		mailer = &jobs.LogMailer{Logger: logger}
	}

	handlers := jobs.NewHandlers(
		logger,
		mailer,
		cart.NewStore(redisClient, cfg.CartTTL),
		jobmetrics.NewMetrics(nil),
	)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
