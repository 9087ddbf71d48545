package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Facugl/microservices-ecommerce/internal/config"
	"github.com/Facugl/microservices-ecommerce/internal/payment/application"
	paymenthttp "github.com/Facugl/microservices-ecommerce/internal/payment/infrastructure/http"
	paymentpg "github.com/Facugl/microservices-ecommerce/internal/payment/infrastructure/postgres"
	"github.com/Facugl/microservices-ecommerce/internal/postgres"
	"github.com/Facugl/microservices-ecommerce/pkg/logging"
	"github.com/Facugl/microservices-ecommerce/pkg/outbox"
	"github.com/Facugl/microservices-ecommerce/pkg/shutdown"
	"github.com/Facugl/microservices-ecommerce/pkg/tracing"
)

func main() {
	log := logging.New("payment-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg := config.Load("payment-service")

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

	repo := paymentpg.NewRepository(log, pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	store := outbox.NewPGStore(log, pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Error("outbox migration failed", "err", err)
		os.Exit(1)
	}

	writer := outbox.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()

	dispatch := outbox.NewDispatcher(log, writer, cfg.PaymentTopic)
	relay := outbox.NewRelay(log, store, dispatch, "payment-service-relay")

	svc := application.NewService(repo)
	handler := paymenthttp.NewHandler(log, svc)

	r := chi.NewRouter()
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("payment-service shutdown complete")
}
