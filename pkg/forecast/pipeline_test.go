package forecast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/solarcast/solarcast/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPipelinePredict(t *testing.T) {
	ctx := context.Background()

	t.Run("Scenario", func(t *testing.T) {
		m := &mockFetcher{}
		m.On("Fetch", mock.Anything, 32).Return(types.ForecastSeries{
			point(t, "2023-07-01", 10.2),
			point(t, "2023-07-02", 15.7),
			point(t, "2023-07-03", 9.9),
		}, nil).Once()

		p := NewPipeline(DefaultConfig(), m)
		r := types.DateRange{Start: mustDate(t, "2023-07-02"), End: mustDate(t, "2023-08-01")}

		before := testutil.ToFloat64(predictionsTotal.WithLabelValues("success"))
		pred, err := p.Predict(ctx, r)
		require.NoError(t, err)

		assert.Equal(t, r, pred.Range)
		assert.Equal(t, 32, pred.OffsetDays)
		assert.Equal(t, []float64{15.7, 9.9}, pred.Series.Values())
		assert.Equal(t, types.ForecastSummary{Average: 13, Min: 10, Max: 16}, pred.Summary)
		assert.Equal(t, before+1, testutil.ToFloat64(predictionsTotal.WithLabelValues("success")))
		m.AssertExpectations(t)
	})

	t.Run("Fetches Once With Translated End", func(t *testing.T) {
		p := NewPipeline(DefaultConfig(), nil)
		start := mustDate(t, "2023-07-01")
		for _, end := range []string{"2023-07-02", "2023-07-31", "2023-12-25", "2024-03-01"} {
			m := &mockFetcher{}
			p.fetcher = m
			endDate := mustDate(t, end)
			m.On("Fetch", mock.Anything, p.Translate(endDate)).Return(types.ForecastSeries{point(t, end, 1)}, nil)

			_, err := p.Predict(ctx, types.DateRange{Start: start, End: endDate})
			require.NoError(t, err)
			m.AssertNumberOfCalls(t, "Fetch", 1)
			m.AssertCalled(t, "Fetch", mock.Anything, DayOffset(DefaultAnchor, endDate))
		}
	})

	t.Run("Validation Errors Skip Fetch", func(t *testing.T) {
		for name, r := range map[string]types.DateRange{
			"start after end": {Start: mustDate(t, "2023-08-01"), End: mustDate(t, "2023-07-01")},
			"start equals end": {Start: mustDate(t, "2023-07-15"), End: mustDate(t, "2023-07-15")},
			"before min date":  {Start: mustDate(t, "2023-06-15"), End: mustDate(t, "2023-07-15")},
			"zero dates":       {},
		} {
			t.Run(name, func(t *testing.T) {
				m := &mockFetcher{}
				p := NewPipeline(DefaultConfig(), m)

				before := testutil.ToFloat64(predictionsTotal.WithLabelValues("validation_error"))
				_, err := p.Predict(ctx, r)
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, r, vErr.Range)
				m.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
				assert.Equal(t, before+1, testutil.ToFloat64(predictionsTotal.WithLabelValues("validation_error")))
			})
		}
	})

	t.Run("Validation Messages", func(t *testing.T) {
		p := NewPipeline(DefaultConfig(), nil)
		err := p.Validate(types.DateRange{Start: mustDate(t, "2023-08-01"), End: mustDate(t, "2023-07-01")})
		assert.EqualError(t, err, "End date must be after start date.")

		err = p.Validate(types.DateRange{Start: mustDate(t, "2023-06-01"), End: mustDate(t, "2023-07-01")})
		assert.EqualError(t, err, "Dates must be on or after 2023-07-01.")

		assert.NoError(t, p.Validate(types.DateRange{Start: mustDate(t, "2023-07-01"), End: mustDate(t, "2023-07-02")}))
	})

	t.Run("Fetch Error Propagates", func(t *testing.T) {
		fetchErr := &NetworkError{StatusCode: http.StatusBadGateway}
		m := &mockFetcher{}
		m.On("Fetch", mock.Anything, mock.Anything).Return(nil, fetchErr)

		p := NewPipeline(DefaultConfig(), m)
		_, err := p.Predict(ctx, types.DateRange{Start: mustDate(t, "2023-07-01"), End: mustDate(t, "2023-07-10")})
		assert.Same(t, fetchErr, err)
	})

	t.Run("Service Returns 500", func(t *testing.T) {
		requests := 0
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ts.Close()

		cfg := DefaultConfig()
		cfg.EndpointURL = ts.URL
		p := NewPipeline(cfg, NewFetcher(cfg))

		before := testutil.ToFloat64(predictionsTotal.WithLabelValues("network_error"))
		pred, err := p.Predict(ctx, types.DateRange{Start: mustDate(t, "2023-07-01"), End: mustDate(t, "2023-07-10")})
		var nErr *NetworkError
		require.ErrorAs(t, err, &nErr)
		assert.Equal(t, http.StatusInternalServerError, nErr.StatusCode)
		assert.Equal(t, types.Prediction{}, pred)
		assert.Equal(t, 1, requests, "no retry")
		assert.Equal(t, before+1, testutil.ToFloat64(predictionsTotal.WithLabelValues("network_error")))
	})

	t.Run("Payload Without Values", func(t *testing.T) {
		ts := httptest.NewServer(forecastHandler(t, `[{"ds":1688169600000,"value":1.5},{"ds":1688256000000,"value":2.5}]`))
		defer ts.Close()

		cfg := DefaultConfig()
		cfg.EndpointURL = ts.URL
		p := NewPipeline(cfg, NewFetcher(cfg))

		_, err := p.Predict(ctx, types.DateRange{Start: mustDate(t, "2023-07-01"), End: mustDate(t, "2023-07-10")})
		var pErr *ParseError
		assert.ErrorAs(t, err, &pErr)
		assert.False(t, errors.Is(err, ErrEmptyWindow))
	})

	t.Run("Empty Window", func(t *testing.T) {
		m := &mockFetcher{}
		m.On("Fetch", mock.Anything, mock.Anything).Return(types.ForecastSeries{
			point(t, "2023-07-01", 1),
			{Valid: false, Value: 2},
		}, nil)

		p := NewPipeline(DefaultConfig(), m)
		before := testutil.ToFloat64(predictionsTotal.WithLabelValues("empty_window"))
		_, err := p.Predict(ctx, types.DateRange{Start: mustDate(t, "2023-07-05"), End: mustDate(t, "2023-07-10")})
		assert.True(t, errors.Is(err, ErrEmptyWindow))
		assert.Equal(t, before+1, testutil.ToFloat64(predictionsTotal.WithLabelValues("empty_window")))
	})
}
