package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/solarcast/solarcast/pkg/types"
	"golang.org/x/time/rate"
)

// RateLimitedFetcher wraps a Fetcher so that requests to the forecast service are
// spaced at least every apart, allowing bursts of up to burst requests.
type RateLimitedFetcher struct {
	fetcher Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher creates a new rate limited fetcher.
func NewRateLimitedFetcher(fetcher Fetcher, every time.Duration, burst int) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(every), burst),
	}
}

// Fetch waits for the limiter and then forwards to the wrapped fetcher. A wait
// that is canceled is reported as a *NetworkError.
func (r *RateLimitedFetcher) Fetch(ctx context.Context, offsetDays int) (types.ForecastSeries, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("rate limit wait canceled: %w", err)}
	}
	return r.fetcher.Fetch(ctx, offsetDays)
}

var _ Fetcher = (*RateLimitedFetcher)(nil)
