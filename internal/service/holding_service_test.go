package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
	"github.com/ndewijer/Personal-Finance-Backend/internal/service"
	"github.com/ndewijer/Personal-Finance-Backend/internal/testutil"
)

func TestHoldingService_GetHoldingsForAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, testutil.NewMockMarketData())
	accountID := testutil.MakeID()

	a := testutil.NewSecurity().WithTicker("AAA").Build(t, db)
	b := testutil.NewSecurity().WithTicker("BBB").Build(t, db)
	testutil.NewHolding(accountID, b.ID).Build(t, db)
	testutil.NewHolding(accountID, a.ID).Build(t, db)
	testutil.NewHolding(testutil.MakeID(), a.ID).Build(t, db)

	holdings, err := svc.Holdings.GetHoldingsForAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, a.ID, holdings[0].SecurityID)
	assert.Equal(t, b.ID, holdings[1].SecurityID)

	empty, err := svc.Holdings.GetHoldingsForAccount(context.Background(), testutil.MakeID())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHoldingService_GetHolding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, testutil.NewMockMarketData())
	accountID := testutil.MakeID()
	sec := testutil.NewSecurity().Build(t, db)

	_, err := svc.Holdings.GetHolding(context.Background(), accountID, sec.ID)
	require.ErrorIs(t, err, apperrors.ErrHoldingNotFound)

	testutil.NewHolding(accountID, sec.ID).WithPosition(50, 500).Build(t, db)

	h, err := svc.Holdings.GetHolding(context.Background(), accountID, sec.ID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(h.AverageCostBasis))
	assert.Equal(t, int64(1), h.Version)
}

func TestValuate(t *testing.T) {
	h := model.Holding{
		Quantity:         dec("54"),
		TotalCostBasis:   dec("1100"),
		AverageCostBasis: dec("1100").Div(dec("54")),
	}
	sec := model.Security{Currency: "USD", CurrentPrice: dec("30")}

	v := service.Valuate(h, sec)

	assert.True(t, dec("1620").Equal(v.MarketValue))
	assert.True(t, dec("520").Equal(v.UnrealizedGainLoss))
	assert.Equal(t, "USD", v.Currency)
	assert.Equal(t, "$30.00", v.Display.Price)
	assert.Equal(t, "$1,620.00", v.Display.MarketValue)
	assert.Equal(t, "$1,100.00", v.Display.TotalCostBasis)
	assert.Equal(t, "$520.00", v.Display.UnrealizedGainLoss)
}

func TestValuate_Loss(t *testing.T) {
	v := service.Valuate(
		model.Holding{Quantity: dec("10"), TotalCostBasis: dec("100")},
		model.Security{Currency: "EUR", CurrentPrice: dec("7.255")},
	)

	assert.True(t, dec("-27.45").Equal(v.UnrealizedGainLoss))
	assert.Equal(t, "€7.26", v.Display.Price)
}

func TestHoldingService_GetValuation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)

	t.Run("values at the cached price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		md := testutil.NewMockMarketData()
		svc := testutil.NewTestServices(t, db, md)
		accountID := testutil.MakeID()

		sec := testutil.NewSecurity().WithPrice(dec("20")).Build(t, db)
		testutil.NewHolding(accountID, sec.ID).WithPosition(54, 1100).Build(t, db)

		v, err := svc.Holdings.GetValuation(ctx, accountID, sec.ID)
		require.NoError(t, err)
		assert.True(t, dec("1080").Equal(v.MarketValue))
		assert.Equal(t, "-$20.00", v.Display.UnrealizedGainLoss)
		assert.Zero(t, md.Calls())
	})

	t.Run("refreshes an expired price first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		md := testutil.NewMockMarketData()
		svc := testutil.NewTestServices(t, db, md)
		accountID := testutil.MakeID()

		sec := testutil.NewSecurity().
			WithPrice(dec("20")).
			WithPriceTimes(now.Add(-time.Hour), now.Add(-time.Minute)).
			Build(t, db)
		md.WithPrice(sec.Type, sec.Ticker, decimal.NewFromInt(25))
		testutil.NewHolding(accountID, sec.ID).WithPosition(4, 80).Build(t, db)

		holdings := service.NewHoldingService(db, svc.Store, svc.Reconciliation,
			svc.Prices.WithClock(testutil.FixedClock(now)), zerolog.Nop())

		v, err := holdings.GetValuation(ctx, accountID, sec.ID)
		require.NoError(t, err)
		assert.True(t, dec("100").Equal(v.MarketValue))
		assert.True(t, now.Equal(v.PriceUpdatedAt))
		assert.Equal(t, 1, md.PriceCount)
	})

	t.Run("no holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockMarketData())
		sec := testutil.NewSecurity().Build(t, db)

		_, err := svc.Holdings.GetValuation(ctx, testutil.MakeID(), sec.ID)
		assert.ErrorIs(t, err, apperrors.ErrHoldingNotFound)
	})
}

func TestHoldingService_RebuildHolding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, testutil.NewMockMarketData())
	accountID := testutil.MakeID()
	sec := testutil.NewSecurity().Build(t, db)

	testutil.NewTransaction(accountID, sec.ID).Buy(10, 10).Build(t, db)
	testutil.NewTransaction(accountID, sec.ID).Sell(4, 12).OnDate(testutil.Date(2024, 1, 2)).Build(t, db)

	h, err := svc.Holdings.RebuildHolding(context.Background(), accountID, sec.ID)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.True(t, dec("6").Equal(h.Quantity))
	assert.True(t, dec("60").Equal(h.TotalCostBasis))

	stored, err := svc.Holdings.GetHolding(context.Background(), accountID, sec.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Version, stored.Version)
}
