package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Personal-Finance-Backend/internal/api/request"
	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
	"github.com/ndewijer/Personal-Finance-Backend/internal/repository"
	"github.com/ndewijer/Personal-Finance-Backend/internal/validation"
)

// TransactionService handles ledger writes. Investment transactions are reconciled
// against their holding in the same SQL transaction as the ledger write, so a
// rejected replay leaves both the ledger and the holding untouched.
type TransactionService struct {
	db         *sql.DB
	store      *repository.LedgerStore
	engine     *ReconciliationService
	securities *SecurityService
	now        Clock
	log        zerolog.Logger
}

// NewTransactionService creates a new TransactionService with the provided dependencies.
func NewTransactionService(
	db *sql.DB,
	store *repository.LedgerStore,
	engine *ReconciliationService,
	securities *SecurityService,
	log zerolog.Logger,
) *TransactionService {
	return &TransactionService{
		db:         db,
		store:      store,
		engine:     engine,
		securities: securities,
		now:        systemClock,
		log:        log.With().Str("component", "transactions").Logger(),
	}
}

// GetTransaction retrieves a single transaction by its ID.
func (s *TransactionService) GetTransaction(ctx context.Context, transactionID string) (model.Transaction, error) {
	return s.store.GetTransaction(ctx, transactionID)
}

// GetTransactionsForAccount retrieves all transactions of an account in ledger order.
func (s *TransactionService) GetTransactionsForAccount(ctx context.Context, accountID string) ([]model.Transaction, error) {
	return s.store.GetTransactionsForAccount(ctx, accountID)
}

// CreateTransaction records a new transaction. For investment transactions the
// referenced security is resolved first and the holding is reconciled.
func (s *TransactionService) CreateTransaction(ctx context.Context, req request.CreateTransactionRequest) (model.TransactionResult, error) {
	if err := validation.ValidateCreateTransaction(req); err != nil {
		return model.TransactionResult{}, err
	}

	txn, err := s.buildTransaction(req)
	if err != nil {
		return model.TransactionResult{}, err
	}

	if txn.IsInvestment() && txn.SecurityID == "" {
		securityType, err := model.ParseSecurityType(req.SecurityType)
		if err != nil {
			return model.TransactionResult{}, err
		}
		// Resolution talks to the provider, so it runs before the SQL transaction opens.
		sec, err := s.securities.Resolve(ctx, req.Ticker, securityType)
		if err != nil {
			return model.TransactionResult{}, err
		}
		txn.SecurityID = sec.ID
	}

	result := model.TransactionResult{Transaction: txn}
	err = runWriteTx(ctx, s.db, s.store, s.engine.maxAttempts, s.log, func(store *repository.LedgerStore) error {
		if txn.IsInvestment() {
			if err := requireSecurity(ctx, store, txn.SecurityID); err != nil {
				return err
			}
			h, err := s.engine.inTx(store).Add(ctx, txn)
			if err != nil {
				return err
			}
			result.Holding = h
		}
		return store.InsertTransaction(ctx, txn)
	})
	if err != nil {
		return model.TransactionResult{}, err
	}

	s.log.Info().
		Str("transaction_id", txn.ID).
		Str("account_id", txn.AccountID).
		Str("subtype", string(txn.Subtype)).
		Msg("transaction created")

	return result, nil
}

// UpdateTransaction merges req onto the stored transaction and replaces it.
// An investment transaction moved to another account or security is removed from the
// old holding and added to the new one.
func (s *TransactionService) UpdateTransaction(ctx context.Context, transactionID string, req request.UpdateTransactionRequest) (model.TransactionResult, error) {
	if err := validation.ValidateUpdateTransaction(req); err != nil {
		return model.TransactionResult{}, err
	}

	var result model.TransactionResult
	err := runWriteTx(ctx, s.db, s.store, s.engine.maxAttempts, s.log, func(store *repository.LedgerStore) error {
		result = model.TransactionResult{}

		old, err := store.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}

		txn, err := mergeTransaction(old, req)
		if err != nil {
			return err
		}
		if err := validation.ValidateTransaction(txn); err != nil {
			return err
		}

		engine := s.engine.inTx(store)
		samePair := old.AccountID == txn.AccountID && old.SecurityID == txn.SecurityID

		if old.IsInvestment() && (!txn.IsInvestment() || !samePair) {
			if _, err := engine.Delete(ctx, old); err != nil {
				return err
			}
		}

		if txn.IsInvestment() {
			if err := requireSecurity(ctx, store, txn.SecurityID); err != nil {
				return err
			}
			var h *model.Holding
			if old.IsInvestment() && samePair {
				h, err = engine.Edit(ctx, txn)
			} else {
				h, err = engine.Add(ctx, txn)
			}
			if err != nil {
				return err
			}
			result.Holding = h
		}

		result.Transaction = txn
		return store.UpdateTransaction(ctx, txn)
	})
	if err != nil {
		return model.TransactionResult{}, err
	}

	s.log.Info().
		Str("transaction_id", transactionID).
		Msg("transaction updated")

	return result, nil
}

// DeleteTransaction removes a transaction and reconciles the holding it belonged to.
// The result carries the deleted transaction.
func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID string) (model.TransactionResult, error) {
	var result model.TransactionResult
	err := runWriteTx(ctx, s.db, s.store, s.engine.maxAttempts, s.log, func(store *repository.LedgerStore) error {
		txn, err := store.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		result.Transaction = txn

		if txn.IsInvestment() {
			h, err := s.engine.inTx(store).Delete(ctx, txn)
			if err != nil {
				return err
			}
			result.Holding = h
		}

		return store.DeleteTransaction(ctx, transactionID)
	})
	if err != nil {
		return model.TransactionResult{}, err
	}

	s.log.Info().
		Str("transaction_id", transactionID).
		Msg("transaction deleted")

	return result, nil
}

// buildTransaction converts a validated request into a new ledger entry.
func (s *TransactionService) buildTransaction(req request.CreateTransactionRequest) (model.Transaction, error) {
	date, err := validation.ParseDate(req.Date)
	if err != nil {
		return model.Transaction{}, err
	}
	txType, err := model.ParseTransactionType(req.Type)
	if err != nil {
		return model.Transaction{}, err
	}
	subtype, err := model.ParseTransactionSubtype(txType, req.Subtype)
	if err != nil {
		return model.Transaction{}, err
	}
	category, err := model.ParseTransactionCategory(req.Category)
	if err != nil {
		return model.Transaction{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to generate transaction id: %w", err)
	}

	txn := model.Transaction{
		ID:          id.String(),
		AccountID:   req.AccountID,
		UserID:      req.UserID,
		Date:        date,
		Type:        txType,
		Subtype:     subtype,
		Category:    category,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   s.now(),
	}
	if txn.IsInvestment() {
		txn.SecurityID = strings.TrimSpace(req.SecurityID)
		txn.Quantity = req.Quantity
		txn.PricePerShare = req.PricePerShare
	}

	return txn, nil
}

// mergeTransaction applies the provided fields of req to a copy of t.
func mergeTransaction(t model.Transaction, req request.UpdateTransactionRequest) (model.Transaction, error) {
	var err error

	if req.AccountID != nil {
		t.AccountID = *req.AccountID
	}
	if req.Date != nil {
		if t.Date, err = validation.ParseDate(*req.Date); err != nil {
			return model.Transaction{}, err
		}
	}
	if req.Type != nil {
		if t.Type, err = model.ParseTransactionType(*req.Type); err != nil {
			return model.Transaction{}, err
		}
	}
	if req.Subtype != nil {
		t.Subtype = model.TransactionSubtype(strings.ToUpper(strings.TrimSpace(*req.Subtype)))
	}
	if req.Category != nil {
		if t.Category, err = model.ParseTransactionCategory(*req.Category); err != nil {
			return model.Transaction{}, err
		}
	}
	if req.Amount != nil {
		t.Amount = *req.Amount
	}
	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.SecurityID != nil {
		t.SecurityID = strings.TrimSpace(*req.SecurityID)
	}
	if req.Quantity != nil {
		t.Quantity = *req.Quantity
	}
	if req.PricePerShare != nil {
		t.PricePerShare = *req.PricePerShare
	}

	if !t.IsInvestment() {
		t.SecurityID = ""
		t.Quantity = decimal.Zero
		t.PricePerShare = decimal.Zero
	}

	return t, nil
}

// requireSecurity fails with ErrSecurityDoesNotExist when securityID is not stored.
func requireSecurity(ctx context.Context, store LedgerStore, securityID string) error {
	sec, err := store.GetSecurity(ctx, securityID)
	if err != nil {
		return err
	}
	if sec == nil {
		return fmt.Errorf("%w: %s", apperrors.ErrSecurityDoesNotExist, securityID)
	}
	return nil
}
