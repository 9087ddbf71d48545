package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Facugl/microservices-ecommerce/internal/config"
	"github.com/Facugl/microservices-ecommerce/internal/customer/application"
	customerhttp "github.com/Facugl/microservices-ecommerce/internal/customer/infrastructure/http"
	customerpg "github.com/Facugl/microservices-ecommerce/internal/customer/infrastructure/postgres"
	"github.com/Facugl/microservices-ecommerce/internal/postgres"
	"github.com/Facugl/microservices-ecommerce/pkg/logging"
	"github.com/Facugl/microservices-ecommerce/pkg/shutdown"
	"github.com/Facugl/microservices-ecommerce/pkg/tracing"
)

func main() {
	log := logging.New("customer-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg := config.Load("customer-service")

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

	repo := customerpg.NewRepository(log, pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	svc := application.NewService(repo)
	handler := customerhttp.NewHandler(log, svc)

	r := chi.NewRouter()
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

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
	log.Info("customer-service shutdown complete")
}
