package service

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
	"github.com/ndewijer/Personal-Finance-Backend/internal/repository"
)

// HoldingService serves holdings and their valuation at the cached security price.
type HoldingService struct {
	db     *sql.DB
	store  *repository.LedgerStore
	engine *ReconciliationService
	prices *PriceService
	log    zerolog.Logger
}

// NewHoldingService creates a new HoldingService with the provided dependencies.
func NewHoldingService(
	db *sql.DB,
	store *repository.LedgerStore,
	engine *ReconciliationService,
	prices *PriceService,
	log zerolog.Logger,
) *HoldingService {
	return &HoldingService{
		db:     db,
		store:  store,
		engine: engine,
		prices: prices,
		log:    log.With().Str("component", "holdings").Logger(),
	}
}

// GetHoldingsForAccount returns every holding of an account.
func (s *HoldingService) GetHoldingsForAccount(ctx context.Context, accountID string) ([]model.Holding, error) {
	return s.store.GetHoldingsForAccount(ctx, accountID)
}

// GetHolding returns the holding of an account/security pair.
// Returns ErrHoldingNotFound when the pair holds nothing.
func (s *HoldingService) GetHolding(ctx context.Context, accountID, securityID string) (model.Holding, error) {
	h, err := s.store.GetHolding(ctx, accountID, securityID)
	if err != nil {
		return model.Holding{}, err
	}
	if h == nil {
		return model.Holding{}, apperrors.ErrHoldingNotFound
	}
	return *h, nil
}

// GetValuation values a holding at its security's current price, refreshing an expired
// price from the market-data provider first.
func (s *HoldingService) GetValuation(ctx context.Context, accountID, securityID string) (model.HoldingValuation, error) {
	h, err := s.GetHolding(ctx, accountID, securityID)
	if err != nil {
		return model.HoldingValuation{}, err
	}

	sec, err := s.prices.GetPrice(ctx, securityID)
	if err != nil {
		return model.HoldingValuation{}, err
	}

	return Valuate(h, sec), nil
}

// Valuate prices h at the current price of sec.
func Valuate(h model.Holding, sec model.Security) model.HoldingValuation {
	marketValue := h.Quantity.Mul(sec.CurrentPrice)
	gainLoss := marketValue.Sub(h.TotalCostBasis)

	return model.HoldingValuation{
		Holding:            h,
		Currency:           sec.Currency,
		Price:              sec.CurrentPrice,
		PriceUpdatedAt:     sec.PriceUpdatedAt,
		MarketValue:        marketValue,
		UnrealizedGainLoss: gainLoss,
		Display: model.HoldingValuationDisplay{
			Price:              formatMoney(sec.CurrentPrice, sec.Currency),
			MarketValue:        formatMoney(marketValue, sec.Currency),
			TotalCostBasis:     formatMoney(h.TotalCostBasis, sec.Currency),
			UnrealizedGainLoss: formatMoney(gainLoss, sec.Currency),
		},
	}
}

// RebuildHolding replays the stored ledger of a pair and rewrites its holding.
// Returns nil when the replay leaves nothing to hold.
func (s *HoldingService) RebuildHolding(ctx context.Context, accountID, securityID string) (*model.Holding, error) {
	var h *model.Holding
	err := runWriteTx(ctx, s.db, s.store, s.engine.maxAttempts, s.log, func(store *repository.LedgerStore) error {
		var err error
		h, err = s.engine.inTx(store).Rebuild(ctx, accountID, securityID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("account_id", accountID).
		Str("security_id", securityID).
		Bool("holding_present", h != nil).
		Msg("holding rebuilt")

	return h, nil
}
