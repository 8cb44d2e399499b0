package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Personal-Finance-Backend/internal/app"
	"github.com/ndewijer/Personal-Finance-Backend/internal/config"
	"github.com/ndewijer/Personal-Finance-Backend/internal/service"
)

// TestPriceConfig is the price cache configuration used by test services.
var TestPriceConfig = config.PriceConfig{
	TTL:                15 * time.Minute,
	RefreshConcurrency: 4,
}

// TestConfig is the configuration used by test services.
var TestConfig = &config.Config{
	Prices:         TestPriceConfig,
	Reconciliation: config.ReconciliationConfig{MaxAttempts: 3},
}

// NewTestServices wires every service over db, using provider for market data.
//
// Example usage:
//
//	db := testutil.SetupTestDB(t)
//	md := testutil.NewMockMarketData()
//	svc := testutil.NewTestServices(t, db, md)
func NewTestServices(t *testing.T, db *sql.DB, provider service.MarketDataProvider) *app.App {
	t.Helper()
	return app.New(db, provider, TestConfig, zerolog.Nop())
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) service.Clock {
	return func() time.Time { return t }
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeTicker generates a ticker symbol for testing.
//
// Example usage:
//
//	ticker := testutil.MakeTicker("AAPL")
//	// Returns: "AAPL1A2B"
func MakeTicker(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
