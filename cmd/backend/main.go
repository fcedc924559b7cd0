package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/config"
	"github.com/example/replenishment-service/internal/httpapi"
	"github.com/example/replenishment-service/internal/inventory"
	"github.com/example/replenishment-service/internal/logger"
	"github.com/example/replenishment-service/internal/metrics"
	"github.com/example/replenishment-service/internal/queue"
	"github.com/example/replenishment-service/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "backend").Logger()

	metrics.Register()

	prod, err := queue.NewProducer(cfg.Kafka.Brokers, log.With().Str("component", "producer").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue producer")
	}
	defer func() {
		if err := prod.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close queue producer")
		}
	}()

	publisher, err := queue.NewEventPublisher(prod, cfg.Kafka.EventsTopic, log.With().Str("component", "event-publisher").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	emitter, err := inventory.NewEmitter(publisher, cfg.Emitter.QueueSize, cfg.Emitter.Workers, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create inventory emitter")
	}
	emitter.Start(ctx)
	defer emitter.Close()

	repo := store.NewMemoryProducts(store.DemoProducts())

	svc, err := inventory.NewService(repo, emitter, cfg.Stock.Threshold, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create inventory service")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: httpapi.NewBackendRouter(svc),
	}

	go func() {
		log.Info().Int("port", cfg.App.Port).Msg("backend started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server terminated")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("backend init failed")
}
