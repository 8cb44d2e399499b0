package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Security is a tradeable asset with its cached market price.
type Security struct {
	ID             string          `json:"securityId"`
	Type           SecurityType    `json:"securityType"`
	Ticker         string          `json:"ticker"`
	Name           string          `json:"name"`
	Exchange       string          `json:"exchange,omitempty"` // stocks only
	Currency       string          `json:"currency"`
	CurrentPrice   decimal.Decimal `json:"currentPrice"`
	PriceUpdatedAt time.Time       `json:"priceUpdatedAt"`
	PriceExpiresAt time.Time       `json:"priceExpiresAt"`
}

// SecurityID derives the natural key of a security, e.g. "sec-nasdaq-aapl" or "sec-crypto-btc".
// The exchange is ignored for crypto.
func SecurityID(t SecurityType, exchange, ticker string) string {
	ticker = strings.ToLower(strings.TrimSpace(ticker))
	if t == SecurityTypeCrypto {
		return "sec-crypto-" + ticker
	}
	return "sec-" + strings.ToLower(strings.TrimSpace(exchange)) + "-" + ticker
}

// NormalizeTicker returns the canonical stored form of a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ProviderTicker returns the symbol the market-data provider knows this security by.
func ProviderTicker(t SecurityType, ticker string) string {
	ticker = NormalizeTicker(ticker)
	if t == SecurityTypeCrypto {
		return ticker + "-USD"
	}
	return ticker
}

// IsFresh reports whether the cached price may be used at now without asking the provider.
func (s Security) IsFresh(now time.Time) bool {
	return s.PriceExpiresAt.After(now)
}

// WithPrice returns a copy of s carrying price fetched at now and valid for ttl.
func (s Security) WithPrice(price decimal.Decimal, now time.Time, ttl time.Duration) Security {
	s.CurrentPrice = price
	s.PriceUpdatedAt = now
	s.PriceExpiresAt = now.Add(ttl)
	return s
}

// TickerMetadata is the static identity of a ticker as reported by the market-data provider.
type TickerMetadata struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"` // normalized exchange key, stocks only
	Currency string `json:"currency"`
}
