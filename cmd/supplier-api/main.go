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
	"github.com/example/replenishment-service/internal/logger"
	"github.com/example/replenishment-service/internal/store"
	"github.com/example/replenishment-service/internal/supplierapi"
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
	log := baseLogger.With().Str("service", "supplier-api").Logger()

	svc, err := supplierapi.NewService(store.DemoCatalog(), cfg.Supplier.SupplierID, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create supplier service")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: supplierapi.NewRouter(svc),
	}

	go func() {
		log.Info().Int("port", cfg.App.Port).Str("supplier_id", cfg.Supplier.SupplierID).Msg("supplier api started")
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
	logger.Fatal().Err(err).Str("stage", stage).Msg("supplier api init failed")
}
