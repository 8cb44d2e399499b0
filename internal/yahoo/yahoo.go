package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
)

// DefaultBaseURL is the public Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// FinanceClient provides methods for fetching market data from the Yahoo Finance chart API.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewFinanceClient creates a new Yahoo Finance client.
// An empty baseURL selects DefaultBaseURL; tests point it at an httptest server.
func NewFinanceClient(baseURL string, timeout time.Duration, log zerolog.Logger) *FinanceClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FinanceClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log.With().Str("component", "yahoo").Logger(),
	}
}

// ParseChart converts a raw Yahoo Finance API response into a structured price chart.
//
// Intervals whose close is null are skipped. A chart with no closes is still valid
// as long as the metadata carries a regular market price.
//
// Returns:
//   - PriceChart: Structured chart with indicators and metadata
//   - error: If no result is present or the data arrays have mismatched lengths
func (c *FinanceClient) ParseChart(yahooResult Response) (PriceChart, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return PriceChart{}, fmt.Errorf("no results returned")
	}
	result := yahooResult.Chart.Result[0]

	var closes []Indicators
	if len(result.Indicators.Quote) > 0 {
		quote := result.Indicators.Quote[0]
		if len(quote.Close) != len(result.Timestamp) {
			return PriceChart{}, fmt.Errorf("mismatched data lengths")
		}
		for i, v := range result.Timestamp {
			if !quote.Close[i].Valid {
				continue
			}
			closes = append(closes, Indicators{
				Date:       time.Unix(v, 0).UTC(),
				PriceClose: quote.Close[i].Decimal,
			})
		}
	}

	if len(closes) == 0 && !result.Meta.RegularMarketPrice.IsPositive() {
		return PriceChart{}, fmt.Errorf("no price data returned")
	}

	return PriceChart{
		Symbol:             result.Meta.Symbol,
		Currency:           result.Meta.Currency,
		ExchangeName:       result.Meta.ExchangeName,
		FullExchangeName:   result.Meta.FullExchangeName,
		InstrumentType:     result.Meta.InstrumentType,
		LongName:           result.Meta.LongName,
		Shortname:          result.Meta.Shortname,
		RegularMarketPrice: result.Meta.RegularMarketPrice,
		Indicators:         closes,
	}, nil
}

// QueryYahooFiveDaySymbol fetches the last 5 days of daily price data for a symbol.
// The metadata block of the response carries the latest traded price.
//
// Returns:
//   - Response: Raw API response containing price data
//   - error: apperrors.ErrSymbolNotFound if Yahoo does not know the symbol,
//     or the transport/decoding error otherwise
func (c *FinanceClient) QueryYahooFiveDaySymbol(ctx context.Context, symbol string) (Response, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", c.baseURL, url.PathEscape(symbol))
	result, err := c.queryYahoo(ctx, endpoint)
	if err != nil {
		return Response{}, fmt.Errorf("symbol %s: %w", symbol, err)
	}
	if len(result.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("no results returned for symbol %s: %w", symbol, apperrors.ErrSymbolNotFound)
	}

	return result, nil
}

// queryYahoo executes a GET against the chart API, decodes the body and checks for API errors.
// Yahoo answers unknown symbols with a 404 and a "Not Found" chart error.
func (c *FinanceClient) queryYahoo(ctx context.Context, endpoint string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("yahoo request")

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return Response{}, apperrors.ErrSymbolNotFound
		}
		return Response{}, fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}

	if response.Chart.Error != nil {
		if response.Chart.Error.Code == "Not Found" || resp.StatusCode == http.StatusNotFound {
			return Response{}, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, response.Chart.Error.Description)
		}
		return Response{}, fmt.Errorf("yahoo error: %s: %s", response.Chart.Error.Code, response.Chart.Error.Description)
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	return response, nil
}
