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

	"github.com/samhithabhogadi/budget-manager/internal/amqp"
	"github.com/samhithabhogadi/budget-manager/internal/auth"
	"github.com/samhithabhogadi/budget-manager/internal/config"
	apphttp "github.com/samhithabhogadi/budget-manager/internal/http"
	applog "github.com/samhithabhogadi/budget-manager/internal/log"
	"github.com/samhithabhogadi/budget-manager/internal/market"
	"github.com/samhithabhogadi/budget-manager/internal/session"
	"github.com/samhithabhogadi/budget-manager/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "budget-manager"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("SQLite store ready", "path", cfg.SQLiteDBPath)

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			// Event publishing is optional; the ledger works without a broker.
			logger.Warn("AMQP unavailable, ledger events disabled", "error", err)
			events = nil
		} else {
			defer events.Close()
			logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange)
		}
	}

	sessions := session.NewStore(cfg.SessionTTL)
	defer sessions.Close()

	authService := auth.NewService(store, cfg.BcryptCost)
	quotes := market.NewClient(cfg.MarketBaseURL, cfg.MarketAPIToken, cfg.MarketTimeout)

	srv := apphttp.NewServer(":"+cfg.Port, authService, store, sessions, quotes, events, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting budget-manager server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
