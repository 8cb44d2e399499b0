package request

import "github.com/shopspring/decimal"

// CreateTransactionRequest is the body of POST /api/transaction.
// Investment transactions name their security either by securityId or by
// ticker and securityType; a ticker is resolved (and created) on first use.
type CreateTransactionRequest struct {
	AccountID     string          `json:"accountId"`
	UserID        string          `json:"userId"`
	Date          string          `json:"date"`
	Type          string          `json:"transactionType"`
	Subtype       string          `json:"transactionSubtype"`
	Category      string          `json:"transactionCategory"`
	Amount        decimal.Decimal `json:"transactionAmount"`
	Description   string          `json:"description"`
	SecurityID    string          `json:"securityId"`
	Ticker        string          `json:"ticker"`
	SecurityType  string          `json:"securityType"`
	Quantity      decimal.Decimal `json:"quantity"`
	PricePerShare decimal.Decimal `json:"pricePerShare"`
}

// UpdateTransactionRequest is the body of PUT /api/transaction/{uuid}.
// Provided fields are merged onto the stored transaction and the result replaces it.
type UpdateTransactionRequest struct {
	AccountID     *string          `json:"accountId,omitempty"`
	Date          *string          `json:"date,omitempty"`
	Type          *string          `json:"transactionType,omitempty"`
	Subtype       *string          `json:"transactionSubtype,omitempty"`
	Category      *string          `json:"transactionCategory,omitempty"`
	Amount        *decimal.Decimal `json:"transactionAmount,omitempty"`
	Description   *string          `json:"description,omitempty"`
	SecurityID    *string          `json:"securityId,omitempty"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
	PricePerShare *decimal.Decimal `json:"pricePerShare,omitempty"`
}
