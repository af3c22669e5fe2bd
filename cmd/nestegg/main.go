package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"nestegg/internal/config"
	"nestegg/internal/currency"
	"nestegg/internal/export"
	"nestegg/internal/goals"
	apphttp "nestegg/internal/http"
	"nestegg/internal/ledger"
	"nestegg/internal/log"
	"nestegg/internal/storage"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{Level: cfg.LogLevel})
	log.SetDefault(logger)
	appLogger := logger.WithComponent(log.ComponentApp)

	if err := cfg.Validate(); err != nil {
		appLogger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		appLogger.Error("Failed to open store",
			log.FieldError, err, "db_path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
	},
		ledger.New(store, logger),
		goals.New(store, logger),
		currency.New(store, logger),
		export.New(store, logger),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Starting server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"db_path", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		appLogger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	appLogger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
