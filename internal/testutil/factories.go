package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
	"github.com/ndewijer/Personal-Finance-Backend/internal/repository"
)

// SecurityBuilder provides a fluent interface for creating test securities.
//
// Example usage:
//
//	// NASDAQ stock with a fresh price of 100
//	sec := testutil.NewSecurity().Build(t, db)
//
//	// Crypto with an expired price
//	sec := testutil.NewSecurity().
//	    WithTicker("BTC").
//	    Crypto().
//	    WithPrice(decimal.NewFromInt(60000)).
//	    Expired().
//	    Build(t, db)
type SecurityBuilder struct {
	Type      model.SecurityType
	Ticker    string
	Name      string
	Exchange  string
	Currency  string
	Price     decimal.Decimal
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// NewSecurity creates a SecurityBuilder with sensible defaults.
func NewSecurity() *SecurityBuilder {
	now := time.Now().UTC()
	return &SecurityBuilder{
		Type:      model.SecurityTypeStock,
		Ticker:    MakeTicker("T"),
		Name:      "Test Security Inc.",
		Exchange:  "nasdaq",
		Currency:  "USD",
		Price:     decimal.NewFromInt(100),
		UpdatedAt: now,
		ExpiresAt: now.Add(15 * time.Minute),
	}
}

// WithTicker sets a custom ticker.
func (b *SecurityBuilder) WithTicker(ticker string) *SecurityBuilder {
	b.Ticker = ticker
	return b
}

// WithName sets a custom name.
func (b *SecurityBuilder) WithName(name string) *SecurityBuilder {
	b.Name = name
	return b
}

// WithExchange sets a custom exchange key.
func (b *SecurityBuilder) WithExchange(exchange string) *SecurityBuilder {
	b.Exchange = exchange
	return b
}

// WithCurrency sets a custom currency.
func (b *SecurityBuilder) WithCurrency(currency string) *SecurityBuilder {
	b.Currency = currency
	return b
}

// WithPrice sets the cached price.
func (b *SecurityBuilder) WithPrice(price decimal.Decimal) *SecurityBuilder {
	b.Price = price
	return b
}

// WithPriceTimes sets when the cached price was fetched and when it expires.
func (b *SecurityBuilder) WithPriceTimes(updatedAt, expiresAt time.Time) *SecurityBuilder {
	b.UpdatedAt = updatedAt
	b.ExpiresAt = expiresAt
	return b
}

// Expired makes the cached price stale.
func (b *SecurityBuilder) Expired() *SecurityBuilder {
	b.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	b.ExpiresAt = b.UpdatedAt.Add(15 * time.Minute)
	return b
}

// Crypto turns the security into a cryptocurrency without exchange.
func (b *SecurityBuilder) Crypto() *SecurityBuilder {
	b.Type = model.SecurityTypeCrypto
	b.Exchange = ""
	return b
}

// Model returns the security without persisting it.
func (b *SecurityBuilder) Model() model.Security {
	ticker := model.NormalizeTicker(b.Ticker)
	return model.Security{
		ID:             model.SecurityID(b.Type, b.Exchange, ticker),
		Type:           b.Type,
		Ticker:         ticker,
		Name:           b.Name,
		Exchange:       b.Exchange,
		Currency:       b.Currency,
		CurrentPrice:   b.Price,
		PriceUpdatedAt: b.UpdatedAt,
		PriceExpiresAt: b.ExpiresAt,
	}
}

// Build persists the security and returns it.
func (b *SecurityBuilder) Build(t *testing.T, db *sql.DB) model.Security {
	t.Helper()

	sec := b.Model()
	if err := repository.NewSecurityRepository(db).PutSecurity(context.Background(), sec); err != nil {
		t.Fatalf("Failed to create test security: %v", err)
	}

	return sec
}

// TransactionBuilder provides a fluent interface for creating ledger entries.
// IDs are UUIDv7, so transactions built later sort after earlier ones on the same date.
//
// Example usage:
//
//	testutil.NewTransaction(accountID, sec.ID).Buy(50, 10).Build(t, db)
//	testutil.NewTransaction(accountID, sec.ID).Sell(20, 12).OnDate(day2).Build(t, db)
type TransactionBuilder struct {
	txn model.Transaction
}

// NewTransaction creates a TransactionBuilder for a BUY of 1 share at 1 on 2024-01-01.
func NewTransaction(accountID, securityID string) *TransactionBuilder {
	return &TransactionBuilder{txn: model.Transaction{
		ID:            MakeOrderedID(),
		AccountID:     accountID,
		UserID:        MakeID(),
		Date:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Type:          model.TransactionTypeInvestment,
		Subtype:       model.SubtypeBuy,
		Category:      model.CategoryInvestment,
		Amount:        decimal.NewFromInt(1),
		SecurityID:    securityID,
		Quantity:      decimal.NewFromInt(1),
		PricePerShare: decimal.NewFromInt(1),
		CreatedAt:     time.Now().UTC(),
	}}
}

// WithID sets a custom ID.
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.txn.ID = id
	return b
}

// OnDate sets the transaction date.
func (b *TransactionBuilder) OnDate(date time.Time) *TransactionBuilder {
	b.txn.Date = date
	return b
}

// Buy makes the transaction a BUY of quantity at price.
func (b *TransactionBuilder) Buy(quantity, price float64) *TransactionBuilder {
	return b.trade(model.SubtypeBuy, quantity, price)
}

// Sell makes the transaction a SELL of quantity at price.
func (b *TransactionBuilder) Sell(quantity, price float64) *TransactionBuilder {
	return b.trade(model.SubtypeSell, quantity, price)
}

// WithSubtype overrides the subtype, e.g. to build a DIVIDEND.
func (b *TransactionBuilder) WithSubtype(subtype model.TransactionSubtype) *TransactionBuilder {
	b.txn.Subtype = subtype
	return b
}

// Banking turns the transaction into a banking CREDIT of amount.
func (b *TransactionBuilder) Banking(amount float64) *TransactionBuilder {
	b.txn.Type = model.TransactionTypeBanking
	b.txn.Subtype = model.SubtypeCredit
	b.txn.Category = model.CategoryIncome
	b.txn.Amount = decimal.NewFromFloat(amount)
	b.txn.SecurityID = ""
	b.txn.Quantity = decimal.Zero
	b.txn.PricePerShare = decimal.Zero
	return b
}

func (b *TransactionBuilder) trade(subtype model.TransactionSubtype, quantity, price float64) *TransactionBuilder {
	b.txn.Subtype = subtype
	b.txn.Quantity = decimal.NewFromFloat(quantity)
	b.txn.PricePerShare = decimal.NewFromFloat(price)
	b.txn.Amount = b.txn.Quantity.Mul(b.txn.PricePerShare)
	return b
}

// Model returns the transaction without persisting it.
func (b *TransactionBuilder) Model() model.Transaction {
	return b.txn
}

// Build persists the transaction to the ledger and returns it.
// The holding is not touched; use HoldingBuilder or the reconciliation service for that.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	if err := repository.NewTransactionRepository(db).InsertTransaction(context.Background(), b.txn); err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return b.txn
}

// HoldingBuilder provides a fluent interface for creating materialized holdings.
//
// Example usage:
//
//	h := testutil.NewHolding(accountID, sec.ID).WithPosition(50, 500).Build(t, db)
type HoldingBuilder struct {
	h model.Holding
}

// NewHolding creates a HoldingBuilder holding 1 share at a cost of 1.
func NewHolding(accountID, securityID string) *HoldingBuilder {
	now := time.Now().UTC()
	return &HoldingBuilder{h: model.Holding{
		AccountID:        accountID,
		SecurityID:       securityID,
		Quantity:         decimal.NewFromInt(1),
		TotalCostBasis:   decimal.NewFromInt(1),
		AverageCostBasis: decimal.NewFromInt(1),
		CreatedAt:        now,
		UpdatedAt:        now,
	}}
}

// WithPosition sets quantity and total cost; the average is derived.
func (b *HoldingBuilder) WithPosition(quantity, totalCost float64) *HoldingBuilder {
	b.h.Quantity = decimal.NewFromFloat(quantity)
	b.h.TotalCostBasis = decimal.NewFromFloat(totalCost)
	b.h.AverageCostBasis = b.h.TotalCostBasis.Div(b.h.Quantity)
	return b
}

// Build persists the holding as version 1 and returns it.
func (b *HoldingBuilder) Build(t *testing.T, db *sql.DB) model.Holding {
	t.Helper()

	h, err := repository.NewHoldingRepository(db).PutHolding(context.Background(), b.h, 0)
	if err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}

	return h
}

// MakeOrderedID generates a UUIDv7 string; later calls sort after earlier ones.
func MakeOrderedID() string {
	return uuid.Must(uuid.NewV7()).String()
}
