package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/solarcast/solarcast/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedFetcher(t *testing.T) {
	t.Run("Forwards", func(t *testing.T) {
		m := &mockFetcher{}
		m.On("Fetch", mock.Anything, 5).Return(types.ForecastSeries{point(t, "2023-07-05", 1)}, nil).Once()

		f := NewRateLimitedFetcher(m, time.Millisecond, 1)
		series, err := f.Fetch(context.Background(), 5)
		require.NoError(t, err)
		assert.Len(t, series, 1)
		m.AssertExpectations(t)
	})

	t.Run("Canceled Wait", func(t *testing.T) {
		m := &mockFetcher{}
		m.On("Fetch", mock.Anything, mock.Anything).Return(types.ForecastSeries{}, nil)

		f := NewRateLimitedFetcher(m, time.Hour, 1)
		// use up the burst
		_, err := f.Fetch(context.Background(), 1)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = f.Fetch(ctx, 2)
		var nErr *NetworkError
		require.ErrorAs(t, err, &nErr)
		assert.Contains(t, err.Error(), "rate limit wait canceled")
		m.AssertNumberOfCalls(t, "Fetch", 1)
	})
}
