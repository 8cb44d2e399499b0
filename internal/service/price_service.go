package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/config"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// PriceService is the cache-aside price cache kept on the security records.
// A cached price is served until it expires; nothing is evicted in the background.
type PriceService struct {
	store       LedgerStore
	provider    MarketDataProvider
	ttl         time.Duration
	concurrency int
	now         Clock
	log         zerolog.Logger
}

// NewPriceService creates a PriceService.
func NewPriceService(store LedgerStore, provider MarketDataProvider, cfg config.PriceConfig, log zerolog.Logger) *PriceService {
	concurrency := cfg.RefreshConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &PriceService{
		store:       store,
		provider:    provider,
		ttl:         cfg.TTL,
		concurrency: concurrency,
		now:         systemClock,
		log:         log.With().Str("component", "prices").Logger(),
	}
}

// WithClock returns a copy of the service using now as the current time.
func (s *PriceService) WithClock(now Clock) *PriceService {
	c := *s
	c.now = now
	return &c
}

// TTL returns how long a refreshed price stays fresh.
func (s *PriceService) TTL() time.Duration {
	return s.ttl
}

// IsFresh reports whether the cached price of sec may be used at now.
func (s *PriceService) IsFresh(sec model.Security, now time.Time) bool {
	return sec.IsFresh(now)
}

// Refresh stores price as the current price of sec, fetched at now and valid for the TTL.
func (s *PriceService) Refresh(ctx context.Context, sec model.Security, price decimal.Decimal, now time.Time) (model.Security, error) {
	updated := sec.WithPrice(price, now, s.ttl)
	if err := s.store.PutSecurity(ctx, updated); err != nil {
		return model.Security{}, err
	}
	return updated, nil
}

// GetPrice returns the security with a price that is fresh at the time of the call,
// asking the market-data provider only when the cached one has expired.
func (s *PriceService) GetPrice(ctx context.Context, securityID string) (model.Security, error) {
	sec, err := s.store.GetSecurity(ctx, securityID)
	if err != nil {
		return model.Security{}, err
	}
	if sec == nil {
		return model.Security{}, apperrors.ErrSecurityNotFound
	}

	now := s.now()
	if s.IsFresh(*sec, now) {
		return *sec, nil
	}

	return s.refreshFromProvider(ctx, *sec, now)
}

func (s *PriceService) refreshFromProvider(ctx context.Context, sec model.Security, now time.Time) (model.Security, error) {
	price, err := s.provider.GetLatestPrice(ctx, sec.Type, sec.Ticker)
	if err != nil {
		return model.Security{}, fmt.Errorf("failed to fetch price for %s: %w", sec.ID, err)
	}

	updated, err := s.Refresh(ctx, sec, price, now)
	if err != nil {
		return model.Security{}, err
	}

	s.log.Debug().
		Str("security_id", sec.ID).
		Str("price", price.String()).
		Time("expires_at", updated.PriceExpiresAt).
		Msg("price refreshed")

	return updated, nil
}

// RefreshResult summarizes a batch refresh.
type RefreshResult struct {
	Checked   int               `json:"checked"`
	Refreshed []string          `json:"refreshed"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// RefreshStale refreshes every security whose cached price has expired.
// Securities are independent, so they are refreshed concurrently. A failing security
// is recorded in the result and does not stop the others.
func (s *PriceService) RefreshStale(ctx context.Context) (RefreshResult, error) {
	now := s.now()
	stale, err := s.store.ListSecuritiesWithExpiredPrice(ctx, now)
	if err != nil {
		return RefreshResult{}, err
	}

	result := RefreshResult{
		Checked:   len(stale),
		Refreshed: []string{},
		Failed:    map[string]string{},
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, sec := range stale {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := s.refreshFromProvider(ctx, sec, now)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[sec.ID] = err.Error()
				s.log.Warn().Err(err).Str("security_id", sec.ID).Msg("price refresh failed")
				return nil
			}
			result.Refreshed = append(result.Refreshed, sec.ID)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	s.log.Info().
		Int("checked", result.Checked).
		Int("refreshed", len(result.Refreshed)).
		Int("failed", len(result.Failed)).
		Msg("stale prices refreshed")

	return result, nil
}
