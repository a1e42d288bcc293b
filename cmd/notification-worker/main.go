package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/mcastellan/terravia-backend/internal/notifications"
	"github.com/mcastellan/terravia-backend/internal/users"
	"github.com/mcastellan/terravia-backend/pkg/config"
	"github.com/mcastellan/terravia-backend/pkg/db"
	"github.com/mcastellan/terravia-backend/pkg/logger"
	"github.com/mcastellan/terravia-backend/pkg/mail"
	"github.com/mcastellan/terravia-backend/pkg/migrate"
	"github.com/mcastellan/terravia-backend/pkg/outbox/idempotency"
	"github.com/mcastellan/terravia-backend/pkg/pubsub"
	"github.com/mcastellan/terravia-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "notification-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "notification-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database", err)
		}
	}()

	err = migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.DomainSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "domain subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Outbox.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	mailer := buildMailer(ctx, cfg, logg)

	gormDB := dbClient.DB()
	consumer, err := notifications.NewConsumer(
		notifications.NewRepository(gormDB),
		notifications.NewEmailConfigRepository(gormDB),
		users.NewRepository(gormDB),
		mailer,
		manager,
		logg,
	)
	requireResource(ctx, logg, "notification consumer", err)

	worker, err := notifications.NewWorker(subscription, consumer, logg)
	requireResource(ctx, logg, "notification worker", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithField(runCtx, "env", cfg.App.Env)
	logg.Info(runCtx, "notification worker ready")

	if err := worker.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "notification worker failed", err)
		os.Exit(1)
	}
}

func buildMailer(ctx context.Context, cfg *config.Config, logg *logger.Logger) mail.Sender {
	if !cfg.SMTP.Enabled() {
		logg.Warn(ctx, "smtp not configured, email delivery disabled")
		return mail.NoopMailer{}
	}
	mailer, err := mail.NewSMTPMailer(cfg.SMTP, logg)
	requireResource(ctx, logg, "smtp mailer", err)
	return mailer
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
