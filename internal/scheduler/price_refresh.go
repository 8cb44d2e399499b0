package scheduler

import (
	"context"

	"github.com/ndewijer/Personal-Finance-Backend/internal/service"
)

// PriceRefreshJob refreshes every expired security price.
type PriceRefreshJob struct {
	prices *service.PriceService
}

// NewPriceRefreshJob creates the stale price refresh job.
func NewPriceRefreshJob(prices *service.PriceService) *PriceRefreshJob {
	return &PriceRefreshJob{prices: prices}
}

// Name returns the job name.
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run refreshes stale prices. Individual provider failures are logged by the
// price service and do not fail the job.
func (j *PriceRefreshJob) Run(ctx context.Context) error {
	_, err := j.prices.RefreshStale(ctx)
	return err
}
