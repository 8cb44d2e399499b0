package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// LedgerStore is the keyed store holdings, transactions and securities live in.
// *repository.LedgerStore implements it over SQLite.
type LedgerStore interface {
	// GetHolding returns nil without error when the pair has no holding.
	GetHolding(ctx context.Context, accountID, securityID string) (*model.Holding, error)
	// PutHolding writes h if the stored version equals expectedVersion (0 = must not exist)
	// and returns it with its new version, or apperrors.ErrHoldingVersionConflict.
	PutHolding(ctx context.Context, h model.Holding, expectedVersion int64) (model.Holding, error)
	// DeleteHolding removes the pair's holding if its version equals expectedVersion,
	// or returns apperrors.ErrHoldingVersionConflict.
	DeleteHolding(ctx context.Context, accountID, securityID string, expectedVersion int64) error
	// GetTransactionsForHolding returns the stored investment transactions of the pair in any order.
	GetTransactionsForHolding(ctx context.Context, accountID, securityID string) ([]model.Transaction, error)

	// GetSecurity and FindSecurity return nil without error when nothing matches.
	GetSecurity(ctx context.Context, securityID string) (*model.Security, error)
	FindSecurity(ctx context.Context, securityType model.SecurityType, ticker string) (*model.Security, error)
	PutSecurity(ctx context.Context, s model.Security) error
	ListSecuritiesWithExpiredPrice(ctx context.Context, now time.Time) ([]model.Security, error)
}

// MarketDataProvider is the external source of ticker identity and prices.
// *yahoo.MarketData implements it.
type MarketDataProvider interface {
	// GetTickerMetadata returns nil without error when the provider does not know the ticker.
	GetTickerMetadata(ctx context.Context, securityType model.SecurityType, ticker string) (*model.TickerMetadata, error)
	GetLatestPrice(ctx context.Context, securityType model.SecurityType, ticker string) (decimal.Decimal, error)
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
