package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/database"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
	"github.com/ndewijer/Personal-Finance-Backend/internal/repository"
)

func setupHelperDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Configure(db))
	_, err = database.Migrate(context.Background(), db)
	require.NoError(t, err)
	return db
}

// writeSecurity stores a security named after the attempt, so surviving rows show which
// attempts were committed.
func writeSecurity(ctx context.Context, store *repository.LedgerStore, attempt int) error {
	ticker := fmt.Sprintf("TRY%d", attempt)
	return store.PutSecurity(ctx, model.Security{
		ID:           model.SecurityID(model.SecurityTypeStock, "nasdaq", ticker),
		Type:         model.SecurityTypeStock,
		Ticker:       ticker,
		Name:         ticker,
		Exchange:     "nasdaq",
		Currency:     "USD",
		CurrentPrice: decimal.NewFromInt(1),
	})
}

// A SQL transaction keeps its snapshot, so a lost holding write is retried in a new
// transaction and the writes of the failed attempt are rolled back.
func TestRunWriteTx(t *testing.T) {
	ctx := context.Background()

	t.Run("retries a lost write in a fresh transaction", func(t *testing.T) {
		db := setupHelperDB(t)
		store := repository.NewLedgerStore(db)

		calls := 0
		err := runWriteTx(ctx, db, store, 3, zerolog.Nop(), func(store *repository.LedgerStore) error {
			calls++
			if err := writeSecurity(ctx, store, calls); err != nil {
				return err
			}
			if calls < 3 {
				return fmt.Errorf("failed to write holding: %w", apperrors.ErrHoldingVersionConflict)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)

		var tickers []string
		rows, err := db.Query("SELECT ticker FROM security")
		require.NoError(t, err)
		defer rows.Close()
		for rows.Next() {
			var ticker string
			require.NoError(t, rows.Scan(&ticker))
			tickers = append(tickers, ticker)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []string{"TRY3"}, tickers)
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		db := setupHelperDB(t)
		store := repository.NewLedgerStore(db)

		calls := 0
		err := runWriteTx(ctx, db, store, 2, zerolog.Nop(), func(store *repository.LedgerStore) error {
			calls++
			if err := writeSecurity(ctx, store, calls); err != nil {
				return err
			}
			return apperrors.ErrHoldingVersionConflict
		})
		require.ErrorIs(t, err, apperrors.ErrHoldingVersionConflict)
		assert.Equal(t, 2, calls)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM security").Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		db := setupHelperDB(t)
		store := repository.NewLedgerStore(db)

		calls := 0
		err := runWriteTx(ctx, db, store, 3, zerolog.Nop(), func(*repository.LedgerStore) error {
			calls++
			return apperrors.ErrInvalidHoldingUpdate
		})
		require.ErrorIs(t, err, apperrors.ErrInvalidHoldingUpdate)
		assert.Equal(t, 1, calls)
	})
}

func TestReconciliationService_InTxMakesOneAttempt(t *testing.T) {
	engine := NewReconciliationService(nil, 5, zerolog.Nop())

	scoped := engine.inTx(nil)

	assert.Equal(t, 1, scoped.maxAttempts)
	assert.Equal(t, 5, engine.maxAttempts)
}
