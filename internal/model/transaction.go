package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in sort keys, the database and the API.
const DateLayout = "2006-01-02"

// Transaction is a single ledger entry. Investment transactions carry the
// security fields; banking transactions leave them zero.
type Transaction struct {
	ID          string              `json:"id"`
	AccountID   string              `json:"accountId"`
	UserID      string              `json:"userId"`
	Date        time.Time           `json:"date"`
	Type        TransactionType     `json:"transactionType"`
	Subtype     TransactionSubtype  `json:"transactionSubtype"`
	Category    TransactionCategory `json:"transactionCategory"`
	Amount      decimal.Decimal     `json:"transactionAmount"`
	Description string              `json:"description,omitempty"`
	CreatedAt   time.Time           `json:"createdAt,omitempty"`

	SecurityID    string          `json:"securityId,omitempty"`
	Quantity      decimal.Decimal `json:"quantity,omitzero"`
	PricePerShare decimal.Decimal `json:"pricePerShare,omitzero"`
}

// SortKey returns the composite "YYYY-MM-DD#<id>" key ordering transactions within an account.
func (t Transaction) SortKey() string {
	return SortKey(t.Date, t.ID)
}

// SortKey builds the composite ordering key for a transaction date and id.
func SortKey(date time.Time, id string) string {
	return date.UTC().Format(DateLayout) + "#" + id
}

// IsInvestment reports whether the transaction affects a holding.
func (t Transaction) IsInvestment() bool {
	return t.Type == TransactionTypeInvestment
}

// Cost returns quantity × price per share.
func (t Transaction) Cost() decimal.Decimal {
	return t.Quantity.Mul(t.PricePerShare)
}

// TransactionsByDate orders transactions by calendar date, then by id.
// Transaction ids are UUIDv7, so equal dates fall back to creation order.
func TransactionsByDate(a, b Transaction) int {
	if c := a.Date.UTC().Truncate(24 * time.Hour).Compare(b.Date.UTC().Truncate(24 * time.Hour)); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}

// TransactionResult is the outcome of a ledger write: the transaction and the
// holding of its pair afterwards. Holding is nil for banking transactions and
// when the pair no longer holds anything.
type TransactionResult struct {
	Transaction Transaction `json:"transaction"`
	Holding     *Holding    `json:"holding"`
}
