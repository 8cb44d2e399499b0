package yahoo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// chartQuerier is the part of FinanceClient the market-data adapter depends on.
type chartQuerier interface {
	QueryYahooFiveDaySymbol(ctx context.Context, symbol string) (Response, error)
	ParseChart(yahooResult Response) (PriceChart, error)
}

// MarketData adapts the chart API to the ticker metadata and latest price lookups
// used by security resolution and the price cache.
type MarketData struct {
	client chartQuerier
}

// NewMarketData creates a MarketData provider backed by client.
func NewMarketData(client chartQuerier) *MarketData {
	return &MarketData{client: client}
}

// exchangeKeys maps Yahoo exchange codes to the keys used in security IDs.
var exchangeKeys = map[string]string{
	"NMS": "nasdaq",
	"NGM": "nasdaq",
	"NCM": "nasdaq",
	"NAS": "nasdaq",
	"NYQ": "nyse",
	"NYS": "nyse",
	"ASE": "nyseamerican",
	"PCX": "nysearca",
	"BTS": "cboe",
	"AMS": "euronext",
	"PAR": "euronext",
	"LSE": "lse",
	"GER": "xetra",
	"TOR": "tsx",
}

// ExchangeKey normalizes a Yahoo exchange code. Unknown codes are lower-cased with
// everything but letters and digits removed.
func ExchangeKey(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if key, ok := exchangeKeys[code]; ok {
		return key
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, code)
}

// GetTickerMetadata returns the static identity of ticker.
// Returns nil without error when Yahoo does not know the symbol.
func (m *MarketData) GetTickerMetadata(ctx context.Context, securityType model.SecurityType, ticker string) (*model.TickerMetadata, error) {
	chart, err := m.chart(ctx, securityType, ticker)
	if errors.Is(err, apperrors.ErrSymbolNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	meta := &model.TickerMetadata{
		Ticker:   model.NormalizeTicker(ticker),
		Name:     chart.Name(),
		Currency: strings.ToUpper(chart.Currency),
	}
	if securityType == model.SecurityTypeStock {
		meta.Exchange = ExchangeKey(chart.ExchangeName)
		if meta.Exchange == "" {
			return nil, fmt.Errorf("no exchange reported for %s", ticker)
		}
	}
	if meta.Currency == "" {
		meta.Currency = "USD"
	}

	return meta, nil
}

// GetLatestPrice returns the most recent price Yahoo reports for ticker.
// Returns apperrors.ErrSymbolNotFound when Yahoo does not know the symbol.
func (m *MarketData) GetLatestPrice(ctx context.Context, securityType model.SecurityType, ticker string) (decimal.Decimal, error) {
	chart, err := m.chart(ctx, securityType, ticker)
	if err != nil {
		return decimal.Decimal{}, err
	}

	price, ok := chart.LatestPrice()
	if !ok || !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("no price available for %s", ticker)
	}
	return price, nil
}

func (m *MarketData) chart(ctx context.Context, securityType model.SecurityType, ticker string) (PriceChart, error) {
	resp, err := m.client.QueryYahooFiveDaySymbol(ctx, model.ProviderTicker(securityType, ticker))
	if err != nil {
		return PriceChart{}, err
	}
	return m.client.ParseChart(resp)
}
