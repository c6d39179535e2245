package forecast

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/solarcast/solarcast/pkg/types"
)

const (
	namespace         = "solarcast"
	forecastSubsystem = "forecast"
)

var (
	// fetchTotal counts requests to the forecast service by result
	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: forecastSubsystem,
			Name:      "fetch_total",
			Help:      "Number of requests made to the forecast service by result",
		},
		[]string{"result"}, // "success", "network_error", "parse_error"
	)

	// fetchDuration measures the latency of requests to the forecast service
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: forecastSubsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of requests to the forecast service",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"result"},
	)

	// predictionsTotal counts prediction requests by outcome
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: forecastSubsystem,
			Name:      "predictions_total",
			Help:      "Number of prediction requests by outcome",
		},
		[]string{"outcome"}, // "success", "validation_error", "network_error", "parse_error", "empty_window"
	)

	// windowPoints tracks how many points are left after windowing
	windowPoints = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: forecastSubsystem,
			Name:      "window_points",
			Help:      "Number of forecast points in a prediction window",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)

func init() {
	prometheus.MustRegister(fetchTotal)
	prometheus.MustRegister(fetchDuration)
	prometheus.MustRegister(predictionsTotal)
	prometheus.MustRegister(windowPoints)
}

// instrumentedFetcher records the result and latency of every fetch.
type instrumentedFetcher struct {
	fetcher Fetcher
}

func (f instrumentedFetcher) Fetch(ctx context.Context, offsetDays int) (types.ForecastSeries, error) {
	start := time.Now()
	series, err := f.fetcher.Fetch(ctx, offsetDays)
	result := outcomeLabel(err)
	fetchTotal.WithLabelValues(result).Inc()
	fetchDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return series, err
}

var _ Fetcher = instrumentedFetcher{}
