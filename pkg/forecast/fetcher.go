package forecast

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/solarcast/solarcast/pkg/log"
	"github.com/solarcast/solarcast/pkg/types"
)

// maxResponseBytes bounds how much of a forecast response is read.
const maxResponseBytes = 32 << 20

// Fetcher retrieves a forecast series from the forecast service.
type Fetcher interface {
	// Fetch returns the forecast for the given day offset from the anchor date.
	Fetch(ctx context.Context, offsetDays int) (types.ForecastSeries, error)
}

// HTTPFetcher implements Fetcher against the forecast service's HTTP API,
// which takes the day offset as the d query parameter.
type HTTPFetcher struct {
	endpoint string
	client   *http.Client
}

// NewHTTPFetcher returns a fetcher for the given endpoint.
func NewHTTPFetcher(endpoint string, client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{
		endpoint: endpoint,
		client:   client,
	}
}

// Fetch implements Fetcher. It fails with a *NetworkError when the service
// cannot be reached or returns a non-2xx status, and with a *ParseError when
// the body is not a forecast table.
func (f *HTTPFetcher) Fetch(ctx context.Context, offsetDays int) (types.ForecastSeries, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("invalid forecast endpoint (%s): %w", f.endpoint, err)}
	}
	q := u.Query()
	q.Set("d", strconv.Itoa(offsetDays))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	log.Ctx(ctx).DebugContext(ctx, "fetching forecast", slog.String("url", u.String()))

	resp, err := f.client.Do(req)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch forecast", slog.Any("error", err))
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Ctx(ctx).WarnContext(ctx, "forecast service returned non-success status", slog.Int("status", resp.StatusCode))
		return nil, &NetworkError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	series, err := DecodeSeries(ctx, body)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode forecast response", slog.Any("error", err))
		return nil, err
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched forecast",
		slog.Int("offsetDays", offsetDays),
		slog.Int("count", len(series)),
	)
	return series, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
