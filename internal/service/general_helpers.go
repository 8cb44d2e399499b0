package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/repository"
)

// runInTx runs fn against a LedgerStore scoped to a new SQL transaction.
// The transaction commits only when fn succeeds; otherwise every write fn made is rolled back.
func runInTx(ctx context.Context, db *sql.DB, store *repository.LedgerStore, fn func(store *repository.LedgerStore) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(store.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// runWriteTx runs fn like runInTx, starting over in a fresh SQL transaction when fn
// lost a concurrent holding write. A transaction keeps its snapshot, so only a new one
// can see the winner's holding. At most attempts transactions are run.
func runWriteTx(ctx context.Context, db *sql.DB, store *repository.LedgerStore, attempts int, log zerolog.Logger, fn func(store *repository.LedgerStore) error) error {
	for attempt := 1; ; attempt++ {
		err := runInTx(ctx, db, store, fn)
		if !errors.Is(err, apperrors.ErrHoldingVersionConflict) || attempt >= attempts {
			return err
		}
		log.Warn().
			Int("attempt", attempt).
			Msg("holding changed concurrently, retrying transaction")
	}
}

// formatMoney renders amount in currency, rounded to the currency's minor unit.
//
// Example:
//
//	formatMoney(decimal.RequireFromString("1100"), "USD")   // "$1,100.00"
//	formatMoney(decimal.RequireFromString("20.3704"), "USD") // "$20.37"
func formatMoney(amount decimal.Decimal, currency string) string {
	// money.New registers unknown codes with default formatting, so Currency() is never nil.
	cur := money.New(0, currency).Currency()
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return money.New(minor.IntPart(), currency).Display()
}
