package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// SecurityService resolves tickers to stored securities, creating them from
// market-data provider metadata on first reference.
type SecurityService struct {
	store    LedgerStore
	provider MarketDataProvider
	prices   *PriceService
	log      zerolog.Logger
}

// NewSecurityService creates a SecurityService. Initial prices are stored through prices,
// so a freshly resolved security starts with a full TTL.
func NewSecurityService(store LedgerStore, provider MarketDataProvider, prices *PriceService, log zerolog.Logger) *SecurityService {
	return &SecurityService{
		store:    store,
		provider: provider,
		prices:   prices,
		log:      log.With().Str("component", "securities").Logger(),
	}
}

// Resolve returns the stored security for ticker, creating it on first reference.
// A stored security is returned without contacting the provider.
// Returns ErrSecurityDoesNotExist when the provider does not know the ticker either.
func (s *SecurityService) Resolve(ctx context.Context, ticker string, securityType model.SecurityType) (model.Security, error) {
	ticker = model.NormalizeTicker(ticker)
	if ticker == "" {
		return model.Security{}, apperrors.ErrInvalidTicker
	}

	existing, err := s.store.FindSecurity(ctx, securityType, ticker)
	if err != nil {
		return model.Security{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	meta, err := s.provider.GetTickerMetadata(ctx, securityType, ticker)
	if err != nil {
		return model.Security{}, fmt.Errorf("failed to fetch metadata for %s: %w", ticker, err)
	}
	if meta == nil {
		return model.Security{}, fmt.Errorf("%w: %s %s", apperrors.ErrSecurityDoesNotExist, strings.ToLower(string(securityType)), ticker)
	}

	price, err := s.provider.GetLatestPrice(ctx, securityType, ticker)
	if err != nil {
		return model.Security{}, fmt.Errorf("failed to fetch initial price for %s: %w", ticker, err)
	}

	sec := model.Security{
		ID:       model.SecurityID(securityType, meta.Exchange, ticker),
		Type:     securityType,
		Ticker:   ticker,
		Name:     meta.Name,
		Currency: meta.Currency,
	}
	if securityType == model.SecurityTypeStock {
		sec.Exchange = meta.Exchange
	}

	// Two first references race to write the same key with the same provider data; last write wins.
	sec, err = s.prices.Refresh(ctx, sec, price, s.prices.now())
	if err != nil {
		return model.Security{}, err
	}

	s.log.Info().
		Str("security_id", sec.ID).
		Str("name", sec.Name).
		Msg("security created")

	return sec, nil
}

// GetSecurity returns a stored security by ID.
func (s *SecurityService) GetSecurity(ctx context.Context, securityID string) (model.Security, error) {
	sec, err := s.store.GetSecurity(ctx, securityID)
	if err != nil {
		return model.Security{}, err
	}
	if sec == nil {
		return model.Security{}, apperrors.ErrSecurityNotFound
	}
	return *sec, nil
}
