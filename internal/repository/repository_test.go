package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
	"github.com/ndewijer/Personal-Finance-Backend/internal/repository"
	"github.com/ndewijer/Personal-Finance-Backend/internal/testutil"
)

func TestHoldingRepository_VersionedWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewHoldingRepository(db)
	ctx := context.Background()
	accountID := testutil.MakeID()
	sec := testutil.NewSecurity().Build(t, db)
	now := time.Date(2024, 5, 1, 8, 0, 0, 123456789, time.UTC)

	h := model.Holding{
		AccountID:        accountID,
		SecurityID:       sec.ID,
		Quantity:         decimal.RequireFromString("1.5"),
		TotalCostBasis:   decimal.RequireFromString("15"),
		AverageCostBasis: decimal.RequireFromString("10"),
		UpdatedAt:        now,
	}

	created, err := repo.PutHolding(ctx, h, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)
	assert.True(t, now.Equal(created.CreatedAt))

	// A second create loses against the first.
	_, err = repo.PutHolding(ctx, h, 0)
	require.ErrorIs(t, err, apperrors.ErrHoldingVersionConflict)

	h.Quantity = decimal.RequireFromString("3")
	h.UpdatedAt = now.Add(time.Hour)
	updated, err := repo.PutHolding(ctx, h, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	// A writer still holding version 1 is rejected.
	_, err = repo.PutHolding(ctx, h, 1)
	require.ErrorIs(t, err, apperrors.ErrHoldingVersionConflict)

	stored, err := repo.GetHolding(ctx, accountID, sec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, decimal.RequireFromString("3").Equal(stored.Quantity))
	assert.True(t, now.Equal(stored.CreatedAt), "created_at survives updates")
	assert.True(t, now.Add(time.Hour).Equal(stored.UpdatedAt))

	require.ErrorIs(t, repo.DeleteHolding(ctx, accountID, sec.ID, 1), apperrors.ErrHoldingVersionConflict)
	require.NoError(t, repo.DeleteHolding(ctx, accountID, sec.ID, 2))

	gone, err := repo.GetHolding(ctx, accountID, sec.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestTransactionRepository_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()
	accountID := testutil.MakeID()
	sec := testutil.NewSecurity().Build(t, db)

	buy := testutil.NewTransaction(accountID, sec.ID).Buy(2.5, 4).OnDate(testutil.Date(2024, 2, 1)).Build(t, db)
	banking := testutil.NewTransaction(accountID, "").Banking(99.95).OnDate(testutil.Date(2024, 1, 15)).Build(t, db)

	got, err := repo.GetTransaction(ctx, buy.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionTypeInvestment, got.Type)
	assert.Equal(t, sec.ID, got.SecurityID)
	assert.True(t, decimal.RequireFromString("2.5").Equal(got.Quantity))
	assert.True(t, decimal.RequireFromString("10").Equal(got.Amount))
	assert.Equal(t, "2024-02-01", got.Date.Format(model.DateLayout))

	gotBanking, err := repo.GetTransaction(ctx, banking.ID)
	require.NoError(t, err)
	assert.Empty(t, gotBanking.SecurityID)
	assert.True(t, gotBanking.Quantity.IsZero())

	all, err := repo.GetTransactionsForAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, banking.ID, all[0].ID, "ordered by date")

	investments, err := repo.GetTransactionsForHolding(ctx, accountID, sec.ID)
	require.NoError(t, err)
	require.Len(t, investments, 1)
	assert.Equal(t, buy.ID, investments[0].ID)

	got.Description = "rebalanced"
	got.Date = testutil.Date(2024, 2, 2)
	require.NoError(t, repo.UpdateTransaction(ctx, got))
	reloaded, err := repo.GetTransaction(ctx, buy.ID)
	require.NoError(t, err)
	assert.Equal(t, "rebalanced", reloaded.Description)
	assert.Equal(t, "2024-02-02", reloaded.Date.Format(model.DateLayout))

	require.NoError(t, repo.DeleteTransaction(ctx, buy.ID))
	_, err = repo.GetTransaction(ctx, buy.ID)
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, buy.ID), apperrors.ErrTransactionNotFound)

	missing := got
	missing.ID = testutil.MakeID()
	assert.ErrorIs(t, repo.UpdateTransaction(ctx, missing), apperrors.ErrTransactionNotFound)

	_, err = repo.GetTransaction(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransactionID)
}

func TestSecurityRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSecurityRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := testutil.NewSecurity().WithTicker("FRSH").WithPriceTimes(now, now.Add(time.Minute)).Build(t, db)
	older := testutil.NewSecurity().WithTicker("OLD").WithPriceTimes(now.Add(-2*time.Hour), now.Add(-time.Hour)).Build(t, db)
	edge := testutil.NewSecurity().WithTicker("EDGE").Crypto().WithPriceTimes(now.Add(-15*time.Minute), now).Build(t, db)

	found, err := repo.FindSecurity(ctx, model.SecurityTypeStock, "frsh")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, fresh.ID, found.ID)

	notFound, err := repo.FindSecurity(ctx, model.SecurityTypeCrypto, "FRSH")
	require.NoError(t, err)
	assert.Nil(t, notFound)

	crypto, err := repo.GetSecurity(ctx, edge.ID)
	require.NoError(t, err)
	require.NotNil(t, crypto)
	assert.Empty(t, crypto.Exchange)

	expired, err := repo.ListSecuritiesWithExpiredPrice(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, older.ID, expired[0].ID)
	assert.Equal(t, edge.ID, expired[1].ID)

	refreshed := older.WithPrice(decimal.RequireFromString("12.34"), now, 15*time.Minute)
	refreshed.Name = "Renamed Ltd."
	require.NoError(t, repo.PutSecurity(ctx, refreshed))

	stored, err := repo.GetSecurity(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Ltd.", stored.Name)
	assert.True(t, decimal.RequireFromString("12.34").Equal(stored.CurrentPrice))
	testutil.AssertRowCount(t, db, "security", 3)
}

func TestParseTime(t *testing.T) {
	d, err := repository.ParseTime("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	ts, err := repository.ParseTime("2024-03-05T10:11:12.5+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, 8, ts.Hour())

	_, err = repository.ParseTime("yesterday")
	assert.Error(t, err)
}
