package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Facugl/microservices-ecommerce/internal/config"
	"github.com/Facugl/microservices-ecommerce/internal/notification/application"
	notificationkafka "github.com/Facugl/microservices-ecommerce/internal/notification/infrastructure/kafka"
	notificationpg "github.com/Facugl/microservices-ecommerce/internal/notification/infrastructure/postgres"
	"github.com/Facugl/microservices-ecommerce/internal/postgres"
	"github.com/Facugl/microservices-ecommerce/pkg/idempotency"
	"github.com/Facugl/microservices-ecommerce/pkg/logging"
	"github.com/Facugl/microservices-ecommerce/pkg/shutdown"
	"github.com/Facugl/microservices-ecommerce/pkg/tracing"
)

func main() {
	log := logging.New("notification-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg := config.Load("notification-service")

	tp, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := notificationpg.NewRepository(log, pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, 24*time.Hour)

	svc := application.NewService(log, repo)

	orders := notificationkafka.NewConsumer(log, cfg.KafkaBrokers, cfg.OrderTopic,
		cfg.NotificationGroup, notificationkafka.KindOrderConfirmation, svc, idem)
	payments := notificationkafka.NewConsumer(log, cfg.KafkaBrokers, cfg.PaymentTopic,
		cfg.NotificationGroup, notificationkafka.KindPaymentNotification, svc, idem)

	run := func(name string, c *notificationkafka.Consumer) {
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("consumer stopped with error", "consumer", name, "err", err)
			cancel()
		}
	}
	go run("order-confirmations", orders)
	go run("payment-notifications", payments)

	log.Info("consumers running", "topics", []string{cfg.OrderTopic, cfg.PaymentTopic})
	<-ctx.Done()

	log.Info("notification-service shutdown complete")
}
