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

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Personal-Finance-Backend/internal/api"
	"github.com/ndewijer/Personal-Finance-Backend/internal/app"
	"github.com/ndewijer/Personal-Finance-Backend/internal/config"
	"github.com/ndewijer/Personal-Finance-Backend/internal/logger"
	"github.com/ndewijer/Personal-Finance-Backend/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// run serves until SIGINT or SIGTERM. Deferred cleanup always runs before it returns.
func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logg := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	log.Logger = logg

	// Open database connection and apply migrations
	a, err := app.Open(context.Background(), cfg, logg, true)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer a.Close()

	logg.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Background price refresh
	sched := scheduler.New(5*time.Minute, logg)
	if cfg.Prices.RefreshSchedule != "" {
		if err := sched.AddJob(cfg.Prices.RefreshSchedule, scheduler.NewPriceRefreshJob(a.Prices)); err != nil {
			return fmt.Errorf("invalid price refresh schedule %q: %w", cfg.Prices.RefreshSchedule, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	// Create router
	router := api.NewRouter(a.System, a.Transactions, a.Holdings, a.Securities, a.Prices, cfg, logg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serveErr := make(chan error, 1)
	go func() {
		logg.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-quit:
	}

	logg.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logg.Info().Msg("server exited")
	return nil
}
