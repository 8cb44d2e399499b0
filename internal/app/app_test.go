package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Personal-Finance-Backend/internal/app"
	"github.com/ndewijer/Personal-Finance-Backend/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Database:       config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "nested", "ledger.db")},
		Prices:         config.PriceConfig{TTL: 1, RefreshConcurrency: 1},
		Reconciliation: config.ReconciliationConfig{MaxAttempts: 1},
	}

	a, err := app.Open(ctx, cfg, zerolog.Nop(), true)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	require.NoError(t, a.System.CheckHealth())

	info, err := a.System.CheckVersion(ctx)
	require.NoError(t, err)
	assert.False(t, info.MigrationNeeded)

	holdings, err := a.Holdings.GetHoldingsForAccount(ctx, "0190f3a2-0000-7000-8000-000000000001")
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestOpen_WithoutMigrations(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Database:       config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "ledger.db")},
		Prices:         config.PriceConfig{TTL: 1, RefreshConcurrency: 1},
		Reconciliation: config.ReconciliationConfig{MaxAttempts: 1},
	}

	a, err := app.Open(ctx, cfg, zerolog.Nop(), false)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	info, err := a.System.CheckVersion(ctx)
	require.NoError(t, err)
	assert.True(t, info.MigrationNeeded)
	require.NotNil(t, info.MigrationMessage)
}
