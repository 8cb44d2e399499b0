package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// HoldingRepository provides data access methods for the holding table.
// Writes are compare-and-set on the holding version.
type HoldingRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// WithTx returns a new HoldingRepository scoped to the provided transaction.
func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *HoldingRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const holdingColumns = `
	account_id, security_id, quantity, total_cost_basis, average_cost_basis, version, created_at, updated_at
`

// GetHolding retrieves the holding of an account/security pair.
// Returns nil without error when the pair has no holding.
func (r *HoldingRepository) GetHolding(ctx context.Context, accountID, securityID string) (*model.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holding WHERE account_id = ? AND security_id = ?`

	h, err := scanHolding(r.getQuerier().QueryRowContext(ctx, query, accountID, securityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// GetHoldingsForAccount retrieves all holdings of an account ordered by security.
// Returns an empty slice if the account holds nothing.
func (r *HoldingRepository) GetHoldingsForAccount(ctx context.Context, accountID string) ([]model.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holding WHERE account_id = ? ORDER BY security_id ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding table: %w", err)
	}

	return holdings, nil
}

// PutHolding writes h if the stored version still equals expectedVersion.
// An expectedVersion of 0 means the holding must not exist yet.
// The returned holding carries the new version.
// Returns ErrHoldingVersionConflict when another writer got there first.
func (r *HoldingRepository) PutHolding(ctx context.Context, h model.Holding, expectedVersion int64) (model.Holding, error) {
	h.Version = expectedVersion + 1
	if h.CreatedAt.IsZero() {
		h.CreatedAt = h.UpdatedAt
	}

	var result sql.Result
	var err error
	if expectedVersion == 0 {
		query := `
			INSERT INTO holding (` + holdingColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (account_id, security_id) DO NOTHING
		`
		result, err = r.getQuerier().ExecContext(ctx, query,
			h.AccountID,
			h.SecurityID,
			h.Quantity,
			h.TotalCostBasis,
			h.AverageCostBasis,
			h.Version,
			formatTime(h.CreatedAt),
			formatTime(h.UpdatedAt),
		)
	} else {
		query := `
			UPDATE holding
			SET quantity = ?, total_cost_basis = ?, average_cost_basis = ?, version = ?, updated_at = ?
			WHERE account_id = ? AND security_id = ? AND version = ?
		`
		result, err = r.getQuerier().ExecContext(ctx, query,
			h.Quantity,
			h.TotalCostBasis,
			h.AverageCostBasis,
			h.Version,
			formatTime(h.UpdatedAt),
			h.AccountID,
			h.SecurityID,
			expectedVersion,
		)
	}
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to write holding: %w", err)
	}

	if err := expectOneRow(result, apperrors.ErrHoldingVersionConflict); err != nil {
		return model.Holding{}, err
	}

	return h, nil
}

// DeleteHolding removes the holding of an account/security pair if its version equals expectedVersion.
// Returns ErrHoldingVersionConflict when the row is gone or was rewritten in between.
func (r *HoldingRepository) DeleteHolding(ctx context.Context, accountID, securityID string, expectedVersion int64) error {
	query := `DELETE FROM holding WHERE account_id = ? AND security_id = ? AND version = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, accountID, securityID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}

	return expectOneRow(result, apperrors.ErrHoldingVersionConflict)
}

func scanHolding(row rowScanner) (model.Holding, error) {
	var h model.Holding
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&h.AccountID,
		&h.SecurityID,
		&h.Quantity,
		&h.TotalCostBasis,
		&h.AverageCostBasis,
		&h.Version,
		&createdAtStr,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holding{}, err
	}
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to scan holding table results: %w", err)
	}

	if h.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return model.Holding{}, err
	}
	if h.UpdatedAt, err = ParseTime(updatedAtStr); err != nil {
		return model.Holding{}, err
	}

	return h, nil
}

