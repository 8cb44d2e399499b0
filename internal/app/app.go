// Package app wires the database, market-data provider and services shared by
// the HTTP server and the ledgerctl command.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Personal-Finance-Backend/internal/config"
	"github.com/ndewijer/Personal-Finance-Backend/internal/database"
	"github.com/ndewijer/Personal-Finance-Backend/internal/repository"
	"github.com/ndewijer/Personal-Finance-Backend/internal/service"
	"github.com/ndewijer/Personal-Finance-Backend/internal/yahoo"
)

// App holds the open database and every service built on it.
type App struct {
	DB             *sql.DB
	Store          *repository.LedgerStore
	Reconciliation *service.ReconciliationService
	Prices         *service.PriceService
	Securities     *service.SecurityService
	Transactions   *service.TransactionService
	Holdings       *service.HoldingService
	System         *service.SystemService
}

// Open opens the configured database and wires the services over it.
// When migrate is true, pending schema migrations are applied first.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger, migrate bool) (*App, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if migrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info().Int("applied", applied).Str("path", cfg.Database.Path).Msg("database migrated")
	}

	client := yahoo.NewFinanceClient(cfg.Yahoo.BaseURL, cfg.Yahoo.Timeout, log)
	return New(db, yahoo.NewMarketData(client), cfg, log), nil
}

// New wires the services over an already open database.
func New(db *sql.DB, provider service.MarketDataProvider, cfg *config.Config, log zerolog.Logger) *App {
	store := repository.NewLedgerStore(db)
	engine := service.NewReconciliationService(store, cfg.Reconciliation.MaxAttempts, log)
	prices := service.NewPriceService(store, provider, cfg.Prices, log)
	securities := service.NewSecurityService(store, provider, prices, log)

	return &App{
		DB:             db,
		Store:          store,
		Reconciliation: engine,
		Prices:         prices,
		Securities:     securities,
		Transactions:   service.NewTransactionService(db, store, engine, securities, log),
		Holdings:       service.NewHoldingService(db, store, engine, prices, log),
		System:         service.NewSystemService(db),
	}
}

// Close closes the database.
func (a *App) Close() error {
	return a.DB.Close()
}
