package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meadowcart/storefront-backend/internal/lifecycle"
	"github.com/meadowcart/storefront-backend/internal/orders"
	"github.com/meadowcart/storefront-backend/pkg/config"
	"github.com/meadowcart/storefront-backend/pkg/db"
	"github.com/meadowcart/storefront-backend/pkg/logger"
	"github.com/meadowcart/storefront-backend/pkg/metrics"
	"github.com/meadowcart/storefront-backend/pkg/migrate"
	"github.com/meadowcart/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "lifecycle-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "lifecycle-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsCollector := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	lock, err := lifecycle.NewRedisLock(redisClient, redisClient.LockKey("lifecycle-worker:"+cfg.App.Env), cfg.Lifecycle.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	schedule := orders.TransitionSchedule{
		Transit:  cfg.Checkout.TransitDelay,
		Delivery: cfg.Checkout.DeliveryDelay,
	}

	advanceJob, err := lifecycle.NewAdvanceJob(lifecycle.AdvanceJobParams{
		Logger:    logg,
		Orders:    orders.NewRepository(dbClient.DB()),
		Schedule:  schedule,
		BatchSize: cfg.Lifecycle.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create advance job", err)
		os.Exit(1)
	}

	worker, err := lifecycle.NewWorker(lifecycle.WorkerParams{
		Logger:   logg,
		Registry: lifecycle.NewRegistry(advanceJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Lifecycle.PollInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lifecycle worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Lifecycle.PollInterval.String(),
	})
	logg.Info(ctx, "starting lifecycle worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "lifecycle worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "lifecycle worker shutting down gracefully")
}
