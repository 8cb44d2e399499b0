package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is the materialized position for one account/security pair.
// It is always rebuildable by replaying the pair's transactions.
type Holding struct {
	AccountID        string          `json:"accountId"`
	SecurityID       string          `json:"securityId"`
	Quantity         decimal.Decimal `json:"quantity"`
	TotalCostBasis   decimal.Decimal `json:"totalCostBasis"`
	AverageCostBasis decimal.Decimal `json:"averageCostBasis"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	// Version increments on every write and guards against lost concurrent updates.
	Version int64 `json:"version"`
}

// HoldingValuation is a holding priced at the cached security price.
type HoldingValuation struct {
	Holding            Holding         `json:"holding"`
	Currency           string          `json:"currency"`
	Price              decimal.Decimal `json:"price"`
	PriceUpdatedAt     time.Time       `json:"priceUpdatedAt"`
	MarketValue        decimal.Decimal `json:"marketValue"`
	UnrealizedGainLoss decimal.Decimal `json:"unrealizedGainLoss"`
	// Display holds currency-formatted renderings of the monetary fields.
	Display HoldingValuationDisplay `json:"display"`
}

// HoldingValuationDisplay contains human readable amounts, e.g. "$1,100.00".
type HoldingValuationDisplay struct {
	Price              string `json:"price"`
	MarketValue        string `json:"marketValue"`
	TotalCostBasis     string `json:"totalCostBasis"`
	UnrealizedGainLoss string `json:"unrealizedGainLoss"`
}
