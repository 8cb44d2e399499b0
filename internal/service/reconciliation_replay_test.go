package service_test

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
	"github.com/ndewijer/Personal-Finance-Backend/internal/service"
	"github.com/ndewijer/Personal-Finance-Backend/internal/testutil"
)

const (
	replayAccount  = "0190f3a2-0000-7000-8000-000000000001"
	replaySecurity = "sec-nasdaq-aapl"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buy(qty, price float64) *testutil.TransactionBuilder {
	return testutil.NewTransaction(replayAccount, replaySecurity).Buy(qty, price)
}

func sell(qty, price float64) *testutil.TransactionBuilder {
	return testutil.NewTransaction(replayAccount, replaySecurity).Sell(qty, price)
}

func TestReplay_Fold(t *testing.T) {
	t.Run("single buy", func(t *testing.T) {
		h, err := service.Replay(replayAccount, replaySecurity, []model.Transaction{
			buy(50, 10).Model(),
		})
		require.NoError(t, err)
		require.NotNil(t, h)

		assert.True(t, dec("50").Equal(h.Quantity))
		assert.True(t, dec("500").Equal(h.TotalCostBasis))
		assert.True(t, dec("10").Equal(h.AverageCostBasis))
	})

	t.Run("second buy averages the cost", func(t *testing.T) {
		h, err := service.Replay(replayAccount, replaySecurity, []model.Transaction{
			buy(50, 10).OnDate(testutil.Date(2024, 1, 1)).Model(),
			buy(4, 150).OnDate(testutil.Date(2024, 1, 2)).Model(),
		})
		require.NoError(t, err)
		require.NotNil(t, h)

		assert.True(t, dec("54").Equal(h.Quantity))
		assert.True(t, dec("1100").Equal(h.TotalCostBasis))
		assert.Equal(t, "20.37", h.AverageCostBasis.StringFixed(2))
	})

	t.Run("sell keeps the average and re-derives the total", func(t *testing.T) {
		h, err := service.Replay(replayAccount, replaySecurity, []model.Transaction{
			buy(10, 10).OnDate(testutil.Date(2024, 1, 1)).Model(),
			buy(10, 20).OnDate(testutil.Date(2024, 1, 2)).Model(),
			sell(5, 99).OnDate(testutil.Date(2024, 1, 3)).Model(),
		})
		require.NoError(t, err)
		require.NotNil(t, h)

		assert.True(t, dec("15").Equal(h.Quantity))
		assert.True(t, dec("15").Equal(h.AverageCostBasis))
		assert.True(t, dec("225").Equal(h.TotalCostBasis))
	})

	t.Run("selling everything yields no holding", func(t *testing.T) {
		h, err := service.Replay(replayAccount, replaySecurity, []model.Transaction{
			buy(50, 10).OnDate(testutil.Date(2024, 1, 1)).Model(),
			buy(4, 150).OnDate(testutil.Date(2024, 1, 2)).Model(),
			sell(54, 30).OnDate(testutil.Date(2024, 1, 3)).Model(),
		})
		require.NoError(t, err)
		assert.Nil(t, h)
	})

	t.Run("empty set yields no holding", func(t *testing.T) {
		h, err := service.Replay(replayAccount, replaySecurity, nil)
		require.NoError(t, err)
		assert.Nil(t, h)
	})

	t.Run("buying again after a full sell starts a fresh average", func(t *testing.T) {
		h, err := service.Replay(replayAccount, replaySecurity, []model.Transaction{
			buy(10, 10).OnDate(testutil.Date(2024, 1, 1)).Model(),
			sell(10, 12).OnDate(testutil.Date(2024, 1, 2)).Model(),
			buy(2, 30).OnDate(testutil.Date(2024, 1, 3)).Model(),
		})
		require.NoError(t, err)
		require.NotNil(t, h)

		assert.True(t, dec("2").Equal(h.Quantity))
		assert.True(t, dec("30").Equal(h.AverageCostBasis))
		assert.True(t, dec("60").Equal(h.TotalCostBasis))
	})
}

// TestReplay_Rejections covers every way a transaction set can be invalid.
//
// WHY: a rejected replay must never produce a partial holding, so each case
// asserts both the error kind and the absence of a result.
func TestReplay_Rejections(t *testing.T) {
	tests := []struct {
		name string
		txns []model.Transaction
		msg  string
	}{
		{
			name: "oversell",
			txns: []model.Transaction{
				buy(50, 10).OnDate(testutil.Date(2024, 1, 1)).Model(),
				sell(200, 10).OnDate(testutil.Date(2024, 1, 2)).Model(),
			},
			msg: "exceeds available quantity 50",
		},
		{
			name: "sell dated before the buy that would cover it",
			txns: []model.Transaction{
				sell(5, 10).OnDate(testutil.Date(2024, 1, 1)).Model(),
				buy(50, 10).OnDate(testutil.Date(2024, 1, 2)).Model(),
			},
			msg: "exceeds available quantity 0",
		},
		{
			name: "transaction of another account",
			txns: []model.Transaction{
				buy(1, 1).Model(),
				testutil.NewTransaction(testutil.MakeID(), replaySecurity).Buy(1, 1).Model(),
			},
			msg: "belongs to",
		},
		{
			name: "transaction of another security",
			txns: []model.Transaction{
				testutil.NewTransaction(replayAccount, "sec-nyse-ibm").Buy(1, 1).Model(),
			},
			msg: "belongs to",
		},
		{
			name: "dividend has no holding semantics",
			txns: []model.Transaction{
				buy(10, 1).Model(),
				buy(1, 1).WithSubtype(model.SubtypeDividend).Model(),
			},
			msg: "unsupported subtype DIVIDEND",
		},
		{
			name: "banking transaction",
			txns: []model.Transaction{
				testutil.NewTransaction(replayAccount, replaySecurity).Banking(100).Model(),
			},
			msg: "not an investment transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := service.Replay(replayAccount, replaySecurity, tt.txns)
			require.ErrorIs(t, err, apperrors.ErrInvalidHoldingUpdate)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Nil(t, h)
		})
	}
}

// TestReplay_OrderIndependence checks the result only depends on the set, not the input order.
func TestReplay_OrderIndependence(t *testing.T) {
	txns := []model.Transaction{
		buy(10, 10).OnDate(testutil.Date(2024, 1, 1)).Model(),
		buy(5, 12).OnDate(testutil.Date(2024, 1, 3)).Model(),
		sell(8, 11).OnDate(testutil.Date(2024, 1, 5)).Model(),
		buy(3, 9).OnDate(testutil.Date(2024, 1, 5)).Model(),
		sell(4, 15).OnDate(testutil.Date(2024, 2, 1)).Model(),
	}

	want, err := service.Replay(replayAccount, replaySecurity, txns)
	require.NoError(t, err)
	require.NotNil(t, want)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := slices.Clone(txns)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := service.Replay(replayAccount, replaySecurity, shuffled)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, want.Quantity.Equal(got.Quantity))
		assert.True(t, want.TotalCostBasis.Equal(got.TotalCostBasis))
		assert.True(t, want.AverageCostBasis.Equal(got.AverageCostBasis))
	}
}

// TestReplay_SameDayTieBreak checks that same-day transactions replay in creation order.
func TestReplay_SameDayTieBreak(t *testing.T) {
	day := testutil.Date(2024, 3, 1)
	first := buy(10, 10).OnDate(day).Model()
	second := sell(10, 10).OnDate(day).Model()

	// Created first, replayed first: the sell is covered.
	h, err := service.Replay(replayAccount, replaySecurity, []model.Transaction{second, first})
	require.NoError(t, err)
	assert.Nil(t, h)

	// Same two trades created in the opposite order: the sell comes first and oversells.
	earlySell := sell(10, 10).OnDate(day).Model()
	lateBuy := buy(10, 10).OnDate(day).Model()
	_, err = service.Replay(replayAccount, replaySecurity, []model.Transaction{lateBuy, earlySell})
	assert.ErrorIs(t, err, apperrors.ErrInvalidHoldingUpdate)
}

func TestReplay_DoesNotMutateInput(t *testing.T) {
	txns := []model.Transaction{
		buy(1, 1).OnDate(testutil.Date(2024, 1, 2)).Model(),
		buy(1, 1).OnDate(testutil.Date(2024, 1, 1)).Model(),
	}
	before := slices.Clone(txns)

	_, err := service.Replay(replayAccount, replaySecurity, txns)
	require.NoError(t, err)
	assert.Equal(t, before, txns)
}
