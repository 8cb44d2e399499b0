package repository

import (
	"database/sql"
)

// LedgerStore combines the holding, transaction and security repositories into the
// single store the reconciliation engine and price cache read and write through.
type LedgerStore struct {
	*HoldingRepository
	*TransactionRepository
	*SecurityRepository
}

// NewLedgerStore creates a LedgerStore over the provided database connection.
func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{
		HoldingRepository:     NewHoldingRepository(db),
		TransactionRepository: NewTransactionRepository(db),
		SecurityRepository:    NewSecurityRepository(db),
	}
}

// WithTx returns a LedgerStore whose every read and write runs inside tx.
func (s *LedgerStore) WithTx(tx *sql.Tx) *LedgerStore {
	return &LedgerStore{
		HoldingRepository:     s.HoldingRepository.WithTx(tx),
		TransactionRepository: s.TransactionRepository.WithTx(tx),
		SecurityRepository:    s.SecurityRepository.WithTx(tx),
	}
}
