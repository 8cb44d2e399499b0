package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// MockMarketData is an in-memory market-data provider for tests.
// Tickers are keyed by their provider form ("AAPL", "BTC-USD").
// It is safe for concurrent use.
type MockMarketData struct {
	mu sync.Mutex

	// Metadata is returned by GetTickerMetadata; a missing ticker is "not found".
	Metadata map[string]model.TickerMetadata
	// Prices is returned by GetLatestPrice.
	Prices map[string]decimal.Decimal
	// MockError, when set, is returned by every call.
	MockError error
	// PriceErrors fails GetLatestPrice for individual tickers.
	PriceErrors map[string]error

	// MetadataCount and PriceCount track how many times each method was called.
	MetadataCount int
	PriceCount    int
}

// NewMockMarketData creates a provider that knows AAPL on NASDAQ at 189.84 and BTC at 61234.5.
func NewMockMarketData() *MockMarketData {
	return &MockMarketData{
		Metadata: map[string]model.TickerMetadata{
			"AAPL":    {Ticker: "AAPL", Name: "Apple Inc.", Exchange: "nasdaq", Currency: "USD"},
			"BTC-USD": {Ticker: "BTC", Name: "Bitcoin USD", Currency: "USD"},
		},
		Prices: map[string]decimal.Decimal{
			"AAPL":    decimal.RequireFromString("189.84"),
			"BTC-USD": decimal.RequireFromString("61234.5"),
		},
		PriceErrors: map[string]error{},
	}
}

// WithError configures the mock to fail every call with err.
func (m *MockMarketData) WithError(err error) *MockMarketData {
	m.MockError = err
	return m
}

// WithTicker registers a ticker with metadata and a price.
func (m *MockMarketData) WithTicker(securityType model.SecurityType, meta model.TickerMetadata, price decimal.Decimal) *MockMarketData {
	key := model.ProviderTicker(securityType, meta.Ticker)
	m.Metadata[key] = meta
	m.Prices[key] = price
	return m
}

// WithPrice sets the price returned for a ticker.
func (m *MockMarketData) WithPrice(securityType model.SecurityType, ticker string, price decimal.Decimal) *MockMarketData {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prices[model.ProviderTicker(securityType, ticker)] = price
	return m
}

// WithPriceError makes GetLatestPrice fail for one ticker.
func (m *MockMarketData) WithPriceError(securityType model.SecurityType, ticker string, err error) *MockMarketData {
	m.PriceErrors[model.ProviderTicker(securityType, ticker)] = err
	return m
}

// GetTickerMetadata returns the registered metadata, or nil for unknown tickers.
func (m *MockMarketData) GetTickerMetadata(_ context.Context, securityType model.SecurityType, ticker string) (*model.TickerMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MetadataCount++
	if m.MockError != nil {
		return nil, m.MockError
	}
	meta, ok := m.Metadata[model.ProviderTicker(securityType, ticker)]
	if !ok {
		return nil, nil
	}
	return &meta, nil
}

// GetLatestPrice returns the registered price.
func (m *MockMarketData) GetLatestPrice(_ context.Context, securityType model.SecurityType, ticker string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PriceCount++
	if m.MockError != nil {
		return decimal.Decimal{}, m.MockError
	}
	key := model.ProviderTicker(securityType, ticker)
	if err, ok := m.PriceErrors[key]; ok {
		return decimal.Decimal{}, err
	}
	price, ok := m.Prices[key]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no price for %s", key)
	}
	return price, nil
}

// Calls returns the total number of provider calls made so far.
func (m *MockMarketData) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MetadataCount + m.PriceCount
}
