package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

const aaplChart = `{
  "chart": {
    "result": [{
      "meta": {
        "currency": "USD",
        "symbol": "AAPL",
        "exchangeName": "NMS",
        "fullExchangeName": "NasdaqGS",
        "instrumentType": "EQUITY",
        "longName": "Apple Inc.",
        "shortName": "Apple Inc.",
        "regularMarketPrice": 189.84,
        "regularMarketTime": 1709150400
      },
      "timestamp": [1708905600, 1708992000, 1709078400],
      "indicators": {"quote": [{
        "open": [182.24, 181.1, null],
        "close": [181.16, 182.63, null],
        "high": [182.76, 183.92, null],
        "low": [180.65, 179.56, null]
      }]}
    }],
    "error": null
  }
}`

const btcChart = `{
  "chart": {
    "result": [{
      "meta": {
        "currency": "USD",
        "symbol": "BTC-USD",
        "exchangeName": "CCC",
        "instrumentType": "CRYPTOCURRENCY",
        "shortName": "Bitcoin USD",
        "regularMarketPrice": 61234.5
      },
      "timestamp": [1709078400],
      "indicators": {"quote": [{"open": [60000], "close": [61000], "high": [62000], "low": [59000]}]}
    }],
    "error": null
  }
}`

const notFoundChart = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newTestServer(t *testing.T, paths *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*paths = append(*paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/AAPL"):
			_, _ = w.Write([]byte(aaplChart))
		case strings.HasSuffix(r.URL.Path, "/BTC-USD"):
			_, _ = w.Write([]byte(btcChart))
		case strings.HasSuffix(r.URL.Path, "/BROKEN"):
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(notFoundChart))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestMarketData(t *testing.T) (*MarketData, *[]string) {
	t.Helper()
	paths := &[]string{}
	srv := newTestServer(t, paths)
	client := NewFinanceClient(srv.URL, 5*time.Second, zerolog.Nop())
	return NewMarketData(client), paths
}

func TestFinanceClient_ParseChart(t *testing.T) {
	client := NewFinanceClient("", time.Second, zerolog.Nop())

	t.Run("skips null closes", func(t *testing.T) {
		paths := &[]string{}
		srv := newTestServer(t, paths)
		c := NewFinanceClient(srv.URL, time.Second, zerolog.Nop())

		resp, err := c.QueryYahooFiveDaySymbol(context.Background(), "AAPL")
		require.NoError(t, err)

		chart, err := client.ParseChart(resp)
		require.NoError(t, err)
		assert.Len(t, chart.Indicators, 2)
		assert.Equal(t, "Apple Inc.", chart.Name())
		assert.True(t, decimal.RequireFromString("182.63").Equal(chart.Indicators[1].PriceClose))
	})

	t.Run("rejects empty result", func(t *testing.T) {
		_, err := client.ParseChart(Response{})
		assert.Error(t, err)
	})

	t.Run("rejects mismatched lengths", func(t *testing.T) {
		resp := Response{Chart: Chart{Result: []Result{{
			Timestamp: []int64{1, 2},
			Indicators: IndicatorsContainer{Quote: []Quote{{
				Close: []decimal.NullDecimal{{Decimal: decimal.NewFromInt(1), Valid: true}},
			}}},
		}}}}
		_, err := client.ParseChart(resp)
		assert.ErrorContains(t, err, "mismatched")
	})
}

func TestPriceChart_LatestPrice(t *testing.T) {
	t.Run("prefers regular market price", func(t *testing.T) {
		chart := PriceChart{
			RegularMarketPrice: decimal.NewFromInt(12),
			Indicators:         []Indicators{{PriceClose: decimal.NewFromInt(10)}},
		}
		price, ok := chart.LatestPrice()
		assert.True(t, ok)
		assert.True(t, decimal.NewFromInt(12).Equal(price))
	})

	t.Run("falls back to last close", func(t *testing.T) {
		chart := PriceChart{Indicators: []Indicators{
			{PriceClose: decimal.NewFromInt(10)},
			{PriceClose: decimal.NewFromInt(11)},
		}}
		price, ok := chart.LatestPrice()
		assert.True(t, ok)
		assert.True(t, decimal.NewFromInt(11).Equal(price))
	})

	t.Run("nothing available", func(t *testing.T) {
		_, ok := PriceChart{}.LatestPrice()
		assert.False(t, ok)
	})
}

func TestExchangeKey(t *testing.T) {
	assert.Equal(t, "nasdaq", ExchangeKey("NMS"))
	assert.Equal(t, "nasdaq", ExchangeKey("ngm"))
	assert.Equal(t, "nyse", ExchangeKey("NYQ"))
	assert.Equal(t, "foo1", ExchangeKey(" Fo-o 1 "))
}

func TestMarketData_GetTickerMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("stock maps exchange code", func(t *testing.T) {
		md, _ := newTestMarketData(t)

		meta, err := md.GetTickerMetadata(ctx, model.SecurityTypeStock, "aapl")
		require.NoError(t, err)
		require.NotNil(t, meta)
		assert.Equal(t, "AAPL", meta.Ticker)
		assert.Equal(t, "Apple Inc.", meta.Name)
		assert.Equal(t, "nasdaq", meta.Exchange)
		assert.Equal(t, "USD", meta.Currency)
	})

	t.Run("crypto queries the USD pair and has no exchange", func(t *testing.T) {
		md, paths := newTestMarketData(t)

		meta, err := md.GetTickerMetadata(ctx, model.SecurityTypeCrypto, "btc")
		require.NoError(t, err)
		require.NotNil(t, meta)
		assert.Empty(t, meta.Exchange)
		assert.Equal(t, "Bitcoin USD", meta.Name)
		assert.Equal(t, []string{"/v8/finance/chart/BTC-USD"}, *paths)
	})

	t.Run("unknown symbol is nil without error", func(t *testing.T) {
		md, _ := newTestMarketData(t)

		meta, err := md.GetTickerMetadata(ctx, model.SecurityTypeStock, "NOPE")
		require.NoError(t, err)
		assert.Nil(t, meta)
	})

	t.Run("transport failure propagates", func(t *testing.T) {
		md, _ := newTestMarketData(t)

		_, err := md.GetTickerMetadata(ctx, model.SecurityTypeStock, "BROKEN")
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrSymbolNotFound)
	})
}

func TestMarketData_GetLatestPrice(t *testing.T) {
	ctx := context.Background()
	md, _ := newTestMarketData(t)

	price, err := md.GetLatestPrice(ctx, model.SecurityTypeStock, "AAPL")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("189.84").Equal(price))

	_, err = md.GetLatestPrice(ctx, model.SecurityTypeStock, "NOPE")
	assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
}
