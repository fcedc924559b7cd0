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
	"github.com/example/replenishment-service/internal/correlation"
	"github.com/example/replenishment-service/internal/httpapi"
	"github.com/example/replenishment-service/internal/logger"
	"github.com/example/replenishment-service/internal/metrics"
	"github.com/example/replenishment-service/internal/queue"
	"github.com/example/replenishment-service/internal/retry"
	"github.com/example/replenishment-service/internal/schema"
	"github.com/example/replenishment-service/internal/supplier"
	"github.com/example/replenishment-service/internal/worker"
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
	log := baseLogger.With().Str("service", "replenishment-worker").Logger()

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

	cons, err := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, log.With().Str("component", "consumer").Logger(), cfg.Kafka.CommitOnSuccessOnly)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue consumer")
	}
	defer func() {
		if err := cons.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close queue consumer")
		}
	}()

	dlqPublisher, err := queue.NewDLQPublisher(prod, cfg.Kafka.DLQTopic, log.With().Str("component", "dlq-publisher").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create dlq publisher")
	}

	tracker, closeTracker, err := newTracker(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise correlation tracker")
	}
	defer closeTracker()

	executor, err := retry.New(retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseBackoffMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
		Jitter:      cfg.Retry.Jitter,
	}, log.With().Str("component", "retry").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise retry executor")
	}

	client, err := supplier.NewClient(supplier.Config{
		BaseURL:        cfg.Supplier.BaseURL,
		AttemptTimeout: time.Duration(cfg.Supplier.TimeoutSeconds) * time.Second,
	}, executor, tracker, log.With().Str("component", "supplier-client").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise supplier client")
	}

	engine, err := worker.NewEngine(worker.Config{
		MaxAttempts:       cfg.Retry.MaxAttempts,
		MsgMaxBytes:       cfg.Retry.MsgMaxBytes,
		WorkerConcurrency: cfg.Retry.WorkerConcurrency,
	}, worker.Dependencies{
		Validator:    schema.New(log.With().Str("component", "validator").Logger()),
		Placer:       client,
		DLQPublisher: dlqPublisher,
		Committer: worker.CommitFunc(func(ctx context.Context, record *worker.Record) error {
			return record.Commit(ctx)
		}),
		Logger: log,
		Now:    time.Now,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise worker engine")
	}

	opsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: httpapi.NewWorkerRouter(cfg),
	}
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server terminated")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ops server shutdown failed")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := cons.Consume(ctx, []string{cfg.Kafka.EventsTopic}, worker.QueueHandler(engine, cons)); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Str("events_topic", cfg.Kafka.EventsTopic).
		Str("dlq_topic", cfg.Kafka.DLQTopic).
		Str("supplier_url", cfg.Supplier.BaseURL).
		Msg("replenishment worker started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("consumer terminated with error")
		}
	}
}

func newTracker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (correlation.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("using in-memory correlation store")
		return correlation.NewMemoryStore(), func() {}, nil
	}

	redisStore, err := correlation.NewRedisStore(ctx, cfg.Redis.Addr, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis correlation store")
	return redisStore, func() {
		if err := redisStore.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis correlation store")
		}
	}, nil
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("replenishment worker init failed")
}
