package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/levenlabs/go-lflag"
	"github.com/solarcast/solarcast/pkg/common"
	"github.com/solarcast/solarcast/pkg/log"
)

const (
	// DefaultEndpointURL is the hosted solar forecast model.
	DefaultEndpointURL = "https://solarmodel.onrender.com/"

	// the model is hosted on an instance that can take a while to wake up
	DefaultTimeout = 60 * time.Second

	DefaultMinInterval = 500 * time.Millisecond
)

var (
	// DefaultAnchor is the date the forecast service counts day offsets from.
	DefaultAnchor = civil.Date{Year: 2023, Month: time.June, Day: 30}

	// DefaultMinDate is the earliest date a user may select.
	DefaultMinDate = civil.Date{Year: 2023, Month: time.July, Day: 1}
)

// Config holds everything a Pipeline needs to talk to the forecast service.
type Config struct {
	EndpointURL string
	Anchor      civil.Date
	MinDate     civil.Date
	Timeout     time.Duration
	// MinInterval is the minimum time between requests to the service. Zero
	// disables rate limiting.
	MinInterval time.Duration
}

// DefaultConfig returns the configuration of the hosted forecast service.
func DefaultConfig() Config {
	return Config{
		EndpointURL: DefaultEndpointURL,
		Anchor:      DefaultAnchor,
		MinDate:     DefaultMinDate,
		Timeout:     DefaultTimeout,
		MinInterval: DefaultMinInterval,
	}
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.EndpointURL == "" {
		return fmt.Errorf("forecast-endpoint is required")
	}
	u, err := url.Parse(c.EndpointURL)
	if err != nil {
		return fmt.Errorf("failed to parse forecast endpoint (%s): %w", c.EndpointURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("forecast endpoint must be http or https: %s", c.EndpointURL)
	}
	if !c.Anchor.IsValid() {
		return fmt.Errorf("invalid anchor date: %s", c.Anchor)
	}
	if !c.MinDate.IsValid() {
		return fmt.Errorf("invalid min date: %s", c.MinDate)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("forecast-timeout cannot be negative")
	}
	if c.MinInterval < 0 {
		return fmt.Errorf("forecast-min-interval cannot be negative")
	}
	return nil
}

// NewFetcher builds the HTTP fetcher for the configured endpoint, instrumented
// and rate limited.
func NewFetcher(cfg Config) Fetcher {
	var f Fetcher = NewHTTPFetcher(cfg.EndpointURL, common.HTTPClient(cfg.Timeout))
	f = instrumentedFetcher{fetcher: f}
	if cfg.MinInterval > 0 {
		f = NewRateLimitedFetcher(f, cfg.MinInterval, 1)
	}
	return f
}

// Configured sets up the forecast Pipeline based on flags.
// It uses lflag to register command-line flags for configuration.
func Configured() *Pipeline {
	p := &Pipeline{}

	endpoint := lflag.String("forecast-endpoint", DefaultEndpointURL, "URL of the solar forecast service")
	anchor := lflag.String("forecast-anchor-date", DefaultAnchor.String(), "Date (YYYY-MM-DD) that day offsets sent to the forecast service are counted from")
	minDate := lflag.String("forecast-min-date", DefaultMinDate.String(), "Earliest date (YYYY-MM-DD) that can be predicted")
	timeout := lflag.Duration("forecast-timeout", DefaultTimeout, "Timeout for a single request to the forecast service")
	minInterval := lflag.Duration("forecast-min-interval", DefaultMinInterval, "Minimum interval between requests to the forecast service. 0 disables rate limiting.")

	lflag.Do(func() {
		ctx := context.Background()
		cfg := Config{
			EndpointURL: *endpoint,
			Timeout:     *timeout,
			MinInterval: *minInterval,
		}
		var err error
		if cfg.Anchor, err = civil.ParseDate(*anchor); err != nil {
			log.Ctx(ctx).Error("invalid forecast-anchor-date", slog.String("value", *anchor), slog.Any("error", err))
			os.Exit(1)
		}
		if cfg.MinDate, err = civil.ParseDate(*minDate); err != nil {
			log.Ctx(ctx).Error("invalid forecast-min-date", slog.String("value", *minDate), slog.Any("error", err))
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			log.Ctx(ctx).Error("invalid forecast configuration", slog.Any("error", err))
			os.Exit(1)
		}
		p.cfg = cfg
		p.fetcher = NewFetcher(cfg)
	})

	return p
}
