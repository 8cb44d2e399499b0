package yahoo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata (name, currency, exchange, last trade)
//   - Chart.Result[].Timestamp: Unix timestamps for each data point
//   - Chart.Result[].Indicators: Price data arrays, null entries on non-trading intervals
//   - Chart.Error: Error object returned instead of results, e.g. for unknown symbols
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the top-level chart payload.
type Chart struct {
	Result []Result   `json:"result"`
	Error  *ChartError `json:"error"`
}

// ChartError is the error object Yahoo returns in place of results.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Result holds the data for a single symbol.
type Result struct {
	Meta       Meta                `json:"meta"`
	Timestamp  []int64             `json:"timestamp"`
	Indicators IndicatorsContainer `json:"indicators"`
}

// Meta is the symbol metadata block.
type Meta struct {
	Currency           string          `json:"currency"`
	Symbol             string          `json:"symbol"`
	ExchangeName       string          `json:"exchangeName"`
	FullExchangeName   string          `json:"fullExchangeName"`
	InstrumentType     string          `json:"instrumentType"`
	LongName           string          `json:"longName"`
	Shortname          string          `json:"shortName"`
	RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
	RegularMarketTime  int64           `json:"regularMarketTime"`
}

// IndicatorsContainer wraps the quote series.
type IndicatorsContainer struct {
	Quote []Quote `json:"quote"`
}

// Quote holds the OHLC series. Entries are null where Yahoo has no data.
type Quote struct {
	Open  []decimal.NullDecimal `json:"open"`
	Close []decimal.NullDecimal `json:"close"`
	High  []decimal.NullDecimal `json:"high"`
	Low   []decimal.NullDecimal `json:"low"`
}

// PriceChart is the parsed form of a Response.
type PriceChart struct {
	Currency           string          `json:"currency"`
	Symbol             string          `json:"symbol"`
	ExchangeName       string          `json:"exchangeName"`
	FullExchangeName   string          `json:"fullExchangeName"`
	InstrumentType     string          `json:"instrumentType"`
	LongName           string          `json:"longName"`
	Shortname          string          `json:"shortName"`
	RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
	Indicators         []Indicators    `json:"indicators"`
}

// Indicators is a single interval's closing price. Intervals without a close are dropped.
type Indicators struct {
	Date       time.Time
	PriceClose decimal.Decimal
}

// Name returns the best human readable name Yahoo offers for the symbol.
func (c PriceChart) Name() string {
	if c.LongName != "" {
		return c.LongName
	}
	if c.Shortname != "" {
		return c.Shortname
	}
	return c.Symbol
}

// LatestPrice returns the last traded price, falling back to the most recent close.
func (c PriceChart) LatestPrice() (decimal.Decimal, bool) {
	if c.RegularMarketPrice.IsPositive() {
		return c.RegularMarketPrice, true
	}
	if len(c.Indicators) == 0 {
		return decimal.Decimal{}, false
	}
	return c.Indicators[len(c.Indicators)-1].PriceClose, true
}
