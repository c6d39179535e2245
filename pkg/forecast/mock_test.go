package forecast

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/solarcast/solarcast/pkg/log"
	"github.com/solarcast/solarcast/pkg/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, offsetDays int) (types.ForecastSeries, error) {
	args := m.Called(ctx, offsetDays)
	if s, ok := args.Get(0).(types.ForecastSeries); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return d
}

func point(t *testing.T, day string, value float64) types.ForecastPoint {
	t.Helper()
	return types.ForecastPoint{
		Timestamp: mustDate(t, day).In(time.UTC),
		Valid:     true,
		Value:     value,
	}
}
