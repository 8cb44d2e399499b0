package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// TransactionRepository provides data access methods for the transaction table.
// Rows are ordered by their composite sort key ("YYYY-MM-DD#<id>").
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const transactionColumns = `
	id, account_id, user_id, date, transaction_type, transaction_subtype,
	transaction_category, amount, description, security_id, quantity, price_per_share, created_at
`

// GetTransaction retrieves a single transaction by its ID.
// Returns ErrTransactionNotFound if no transaction with the given ID exists.
func (r *TransactionRepository) GetTransaction(ctx context.Context, transactionID string) (model.Transaction, error) {
	if transactionID == "" {
		return model.Transaction{}, apperrors.ErrInvalidTransactionID
	}

	query := `SELECT ` + transactionColumns + ` FROM "transaction" WHERE id = ?`

	t, err := scanTransaction(r.getQuerier().QueryRowContext(ctx, query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// GetTransactionsForAccount retrieves every transaction of an account in ledger order.
func (r *TransactionRepository) GetTransactionsForAccount(ctx context.Context, accountID string) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM "transaction"
		WHERE account_id = ?
		ORDER BY sort_key ASC
	`
	return r.queryTransactions(ctx, query, accountID)
}

// GetTransactionsForHolding retrieves the investment transactions of one account/security pair.
// Rows come back in sort key order, but callers must not rely on it for replay.
func (r *TransactionRepository) GetTransactionsForHolding(ctx context.Context, accountID, securityID string) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM "transaction"
		WHERE account_id = ?
		AND security_id = ?
		AND transaction_type = ?
		ORDER BY sort_key ASC
	`
	return r.queryTransactions(ctx, query, accountID, securityID, string(model.TransactionTypeInvestment))
}

// InsertTransaction persists a new ledger entry.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t model.Transaction) error {
	query := `
		INSERT INTO "transaction" (
			id, account_id, user_id, date, sort_key, transaction_type, transaction_subtype,
			transaction_category, amount, description, security_id, quantity, price_per_share, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	securityID, quantity, price := investmentColumns(t)
	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.AccountID,
		t.UserID,
		t.Date.UTC().Format(model.DateLayout),
		t.SortKey(),
		string(t.Type),
		string(t.Subtype),
		string(t.Category),
		t.Amount,
		t.Description,
		securityID,
		quantity,
		price,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// UpdateTransaction replaces an existing ledger entry wholesale. The creation time is kept.
// Returns ErrTransactionNotFound if no transaction with the given ID exists.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, t model.Transaction) error {
	query := `
		UPDATE "transaction"
		SET account_id = ?, user_id = ?, date = ?, sort_key = ?, transaction_type = ?,
			transaction_subtype = ?, transaction_category = ?, amount = ?, description = ?,
			security_id = ?, quantity = ?, price_per_share = ?
		WHERE id = ?
	`

	securityID, quantity, price := investmentColumns(t)
	result, err := r.getQuerier().ExecContext(ctx, query,
		t.AccountID,
		t.UserID,
		t.Date.UTC().Format(model.DateLayout),
		t.SortKey(),
		string(t.Type),
		string(t.Subtype),
		string(t.Category),
		t.Amount,
		t.Description,
		securityID,
		quantity,
		price,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	return expectOneRow(result, apperrors.ErrTransactionNotFound)
}

// DeleteTransaction removes a ledger entry.
// Returns ErrTransactionNotFound if no transaction with the given ID exists.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, transactionID string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM "transaction" WHERE id = ?`, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	return expectOneRow(result, apperrors.ErrTransactionNotFound)
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var dateStr, createdAtStr, txType, subtype, category string
	var description, securityID sql.NullString
	var quantity, price decimal.NullDecimal

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.UserID,
		&dateStr,
		&txType,
		&subtype,
		&category,
		&t.Amount,
		&description,
		&securityID,
		&quantity,
		&price,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, err
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction table results: %w", err)
	}

	t.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.Transaction{}, err
	}
	t.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Transaction{}, err
	}

	// Stored values were parsed on the way in; a failure here is data corruption.
	if t.Type, err = model.ParseTransactionType(txType); err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	if t.Subtype, err = model.ParseTransactionSubtype(t.Type, subtype); err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	if t.Category, err = model.ParseTransactionCategory(category); err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}

	t.Description = description.String
	t.SecurityID = securityID.String
	if quantity.Valid {
		t.Quantity = quantity.Decimal
	}
	if price.Valid {
		t.PricePerShare = price.Decimal
	}

	return t, nil
}

// investmentColumns returns NULLs for the security fields of banking transactions.
func investmentColumns(t model.Transaction) (any, any, any) {
	if !t.IsInvestment() {
		return nil, nil, nil
	}
	return t.SecurityID, t.Quantity, t.PricePerShare
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}
