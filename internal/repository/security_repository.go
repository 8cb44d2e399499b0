package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// SecurityRepository provides data access methods for the security table,
// which doubles as the price cache.
type SecurityRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSecurityRepository creates a new SecurityRepository with the provided database connection.
func NewSecurityRepository(db *sql.DB) *SecurityRepository {
	return &SecurityRepository{db: db}
}

// WithTx returns a new SecurityRepository scoped to the provided transaction.
func (r *SecurityRepository) WithTx(tx *sql.Tx) *SecurityRepository {
	return &SecurityRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *SecurityRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const securityColumns = `
	id, security_type, ticker, name, exchange, currency, current_price, price_updated_at, price_expires_at
`

// GetSecurity retrieves a security by its ID.
// Returns nil without error when no such security exists.
func (r *SecurityRepository) GetSecurity(ctx context.Context, securityID string) (*model.Security, error) {
	query := `SELECT ` + securityColumns + ` FROM security WHERE id = ?`
	return r.queryOne(ctx, query, securityID)
}

// FindSecurity retrieves a security by type and ticker.
// Returns nil without error when no such security exists.
func (r *SecurityRepository) FindSecurity(ctx context.Context, securityType model.SecurityType, ticker string) (*model.Security, error) {
	query := `SELECT ` + securityColumns + ` FROM security WHERE security_type = ? AND ticker = ?`
	return r.queryOne(ctx, query, string(securityType), model.NormalizeTicker(ticker))
}

// PutSecurity inserts a security or overwrites the stored row with the same ID.
func (r *SecurityRepository) PutSecurity(ctx context.Context, s model.Security) error {
	query := `
		INSERT INTO security (` + securityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			exchange = excluded.exchange,
			currency = excluded.currency,
			current_price = excluded.current_price,
			price_updated_at = excluded.price_updated_at,
			price_expires_at = excluded.price_expires_at
	`

	var exchange any
	if s.Exchange != "" {
		exchange = s.Exchange
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		s.ID,
		string(s.Type),
		model.NormalizeTicker(s.Ticker),
		s.Name,
		exchange,
		s.Currency,
		s.CurrentPrice,
		formatTime(s.PriceUpdatedAt),
		formatTime(s.PriceExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert security: %w", err)
	}

	return nil
}

// ListSecuritiesWithExpiredPrice returns every security whose cached price is stale at now,
// oldest expiry first.
func (r *SecurityRepository) ListSecuritiesWithExpiredPrice(ctx context.Context, now time.Time) ([]model.Security, error) {
	query := `SELECT ` + securityColumns + `
		FROM security
		WHERE price_expires_at <= ?
		ORDER BY price_expires_at ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to query security table: %w", err)
	}
	defer rows.Close()

	securities := []model.Security{}
	for rows.Next() {
		s, err := scanSecurity(rows)
		if err != nil {
			return nil, err
		}
		securities = append(securities, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security table: %w", err)
	}

	return securities, nil
}

func (r *SecurityRepository) queryOne(ctx context.Context, query string, args ...any) (*model.Security, error) {
	s, err := scanSecurity(r.getQuerier().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSecurity(row rowScanner) (model.Security, error) {
	var s model.Security
	var securityType, updatedAtStr, expiresAtStr string
	var exchange sql.NullString

	err := row.Scan(
		&s.ID,
		&securityType,
		&s.Ticker,
		&s.Name,
		&exchange,
		&s.Currency,
		&s.CurrentPrice,
		&updatedAtStr,
		&expiresAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Security{}, err
	}
	if err != nil {
		return model.Security{}, fmt.Errorf("failed to scan security table results: %w", err)
	}

	if s.Type, err = model.ParseSecurityType(securityType); err != nil {
		return model.Security{}, fmt.Errorf("security %s: %w", s.ID, err)
	}
	s.Exchange = exchange.String

	if s.PriceUpdatedAt, err = ParseTime(updatedAtStr); err != nil {
		return model.Security{}, err
	}
	if s.PriceExpiresAt, err = ParseTime(expiresAtStr); err != nil {
		return model.Security{}, err
	}

	return s, nil
}
