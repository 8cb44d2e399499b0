package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// ReconciliationService keeps each holding equal to the replay of its transaction ledger.
// Every mutation reloads the full transaction set of the pair, applies the change in
// memory, replays it from zero and then writes or deletes the holding. It never writes
// transaction records; the caller persists those.
type ReconciliationService struct {
	store       LedgerStore
	maxAttempts int
	now         Clock
	log         zerolog.Logger
}

// NewReconciliationService creates a ReconciliationService.
// maxAttempts bounds how often a reconciliation that lost a concurrent holding write is retried.
func NewReconciliationService(store LedgerStore, maxAttempts int, log zerolog.Logger) *ReconciliationService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &ReconciliationService{
		store:       store,
		maxAttempts: maxAttempts,
		now:         systemClock,
		log:         log.With().Str("component", "reconciliation").Logger(),
	}
}

// WithStore returns a copy of the service reading and writing through store,
// typically a LedgerStore scoped to an open SQL transaction.
func (s *ReconciliationService) WithStore(store LedgerStore) *ReconciliationService {
	c := *s
	c.store = store
	return &c
}

// inTx returns a copy reading and writing through a store scoped to an open SQL
// transaction. It makes a single attempt; the caller retries with a new transaction.
func (s *ReconciliationService) inTx(store LedgerStore) *ReconciliationService {
	c := s.WithStore(store)
	c.maxAttempts = 1
	return c
}

// WithClock returns a copy of the service using now for holding timestamps.
func (s *ReconciliationService) WithClock(now Clock) *ReconciliationService {
	c := *s
	c.now = now
	return &c
}

type intent int

const (
	intentAdd intent = iota
	intentEdit
	intentDelete
	intentRebuild
)

func (i intent) String() string {
	switch i {
	case intentAdd:
		return "add"
	case intentEdit:
		return "edit"
	case intentDelete:
		return "delete"
	default:
		return "rebuild"
	}
}

// Add reconciles the holding of txn's pair with txn appended to its ledger.
// Returns the resulting holding, or nil when the pair ends up with nothing.
func (s *ReconciliationService) Add(ctx context.Context, txn model.Transaction) (*model.Holding, error) {
	return s.reconcile(ctx, txn.AccountID, txn.SecurityID, intentAdd, txn)
}

// Edit reconciles the holding of txn's pair with the ledger entry of the same ID replaced by txn.
// The holding must already exist.
func (s *ReconciliationService) Edit(ctx context.Context, txn model.Transaction) (*model.Holding, error) {
	return s.reconcile(ctx, txn.AccountID, txn.SecurityID, intentEdit, txn)
}

// Delete reconciles the holding of txn's pair with the ledger entry of the same ID removed.
// The holding must already exist.
func (s *ReconciliationService) Delete(ctx context.Context, txn model.Transaction) (*model.Holding, error) {
	return s.reconcile(ctx, txn.AccountID, txn.SecurityID, intentDelete, txn)
}

// Rebuild replays the stored ledger of a pair unchanged. It repairs a holding that
// drifted from its ledger and creates or removes it as needed.
func (s *ReconciliationService) Rebuild(ctx context.Context, accountID, securityID string) (*model.Holding, error) {
	return s.reconcile(ctx, accountID, securityID, intentRebuild, model.Transaction{})
}

func (s *ReconciliationService) reconcile(ctx context.Context, accountID, securityID string, in intent, txn model.Transaction) (*model.Holding, error) {
	for attempt := 1; ; attempt++ {
		h, err := s.reconcileOnce(ctx, accountID, securityID, in, txn)
		if !errors.Is(err, apperrors.ErrHoldingVersionConflict) || attempt >= s.maxAttempts {
			return h, err
		}
		s.log.Warn().
			Str("account_id", accountID).
			Str("security_id", securityID).
			Stringer("intent", in).
			Int("attempt", attempt).
			Msg("holding changed during reconciliation, retrying")
	}
}

func (s *ReconciliationService) reconcileOnce(ctx context.Context, accountID, securityID string, in intent, txn model.Transaction) (*model.Holding, error) {
	if in != intentRebuild && !txn.IsInvestment() {
		return nil, fmt.Errorf("%w: transaction %s is not an investment transaction", apperrors.ErrInvalidHoldingUpdate, txn.ID)
	}

	current, err := s.store.GetHolding(ctx, accountID, securityID)
	if err != nil {
		return nil, err
	}
	if current == nil && (in == intentEdit || in == intentDelete) {
		return nil, fmt.Errorf("%w: cannot %s transaction %s: %w", apperrors.ErrInvalidHoldingUpdate, in, txn.ID, apperrors.ErrHoldingNotFound)
	}

	txns, err := s.store.GetTransactionsForHolding(ctx, accountID, securityID)
	if err != nil {
		return nil, err
	}

	txns, err = applyIntent(txns, in, txn)
	if err != nil {
		return nil, err
	}

	next, err := Replay(accountID, securityID, txns)
	if err != nil {
		return nil, err
	}

	h, err := s.commit(ctx, accountID, securityID, current, next)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("account_id", accountID).
		Str("security_id", securityID).
		Stringer("intent", in).
		Int("transactions", len(txns)).
		Bool("holding_present", h != nil).
		Msg("holding reconciled")

	return h, nil
}

// applyIntent assembles the transaction set the replay runs over.
func applyIntent(txns []model.Transaction, in intent, txn model.Transaction) ([]model.Transaction, error) {
	txns = slices.Clone(txns)
	idx := slices.IndexFunc(txns, func(t model.Transaction) bool { return t.ID == txn.ID })

	switch in {
	case intentAdd:
		if idx >= 0 {
			return nil, fmt.Errorf("%w: transaction %s is already recorded", apperrors.ErrInvalidHoldingUpdate, txn.ID)
		}
		return append(txns, txn), nil
	case intentEdit:
		if idx < 0 {
			return nil, fmt.Errorf("%w: %w: %s", apperrors.ErrInvalidHoldingUpdate, apperrors.ErrTransactionNotFound, txn.ID)
		}
		txns[idx] = txn
		return txns, nil
	case intentDelete:
		if idx < 0 {
			return nil, fmt.Errorf("%w: %w: %s", apperrors.ErrInvalidHoldingUpdate, apperrors.ErrTransactionNotFound, txn.ID)
		}
		return slices.Delete(txns, idx, idx+1), nil
	default:
		return txns, nil
	}
}

// commit writes next, or deletes the stored holding when next is nil.
func (s *ReconciliationService) commit(ctx context.Context, accountID, securityID string, current, next *model.Holding) (*model.Holding, error) {
	var expectedVersion int64
	if current != nil {
		expectedVersion = current.Version
	}

	if next == nil {
		if current == nil {
			return nil, nil
		}
		return nil, s.store.DeleteHolding(ctx, accountID, securityID, expectedVersion)
	}

	now := s.now()
	next.CreatedAt = now
	if current != nil {
		next.CreatedAt = current.CreatedAt
	}
	next.UpdatedAt = now

	saved, err := s.store.PutHolding(ctx, *next, expectedVersion)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// Replay folds a transaction set into the holding it implies, or nil when the
// resulting quantity is zero. It is a pure function of the set: input order does
// not matter, and any invalid entry or oversell rejects the whole set.
func Replay(accountID, securityID string, txns []model.Transaction) (*model.Holding, error) {
	for _, t := range txns {
		if !t.IsInvestment() {
			return nil, fmt.Errorf("%w: transaction %s is not an investment transaction", apperrors.ErrInvalidHoldingUpdate, t.ID)
		}
		if t.AccountID != accountID || t.SecurityID != securityID {
			return nil, fmt.Errorf("%w: transaction %s belongs to %s/%s, not %s/%s",
				apperrors.ErrInvalidHoldingUpdate, t.ID, t.AccountID, t.SecurityID, accountID, securityID)
		}
		if !t.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: transaction %s has non-positive quantity %s", apperrors.ErrInvalidHoldingUpdate, t.ID, t.Quantity)
		}
	}

	ordered := slices.Clone(txns)
	slices.SortStableFunc(ordered, model.TransactionsByDate)

	quantity := decimal.Zero
	total := decimal.Zero
	average := decimal.Zero

	for _, t := range ordered {
		switch t.Subtype {
		case model.SubtypeBuy:
			quantity = quantity.Add(t.Quantity)
			total = total.Add(t.Cost())
			average = total.Div(quantity)
		case model.SubtypeSell:
			if t.Quantity.GreaterThan(quantity) {
				return nil, fmt.Errorf("%w: sell %s of %s exceeds available quantity %s on %s",
					apperrors.ErrInvalidHoldingUpdate, t.ID, t.Quantity, quantity, t.Date.Format(model.DateLayout))
			}
			quantity = quantity.Sub(t.Quantity)
			total = quantity.Mul(average)
		default:
			return nil, fmt.Errorf("%w: transaction %s has unsupported subtype %s", apperrors.ErrInvalidHoldingUpdate, t.ID, t.Subtype)
		}
	}

	if quantity.IsZero() {
		return nil, nil
	}

	return &model.Holding{
		AccountID:        accountID,
		SecurityID:       securityID,
		Quantity:         quantity,
		TotalCostBasis:   total,
		AverageCostBasis: average,
	}, nil
}
