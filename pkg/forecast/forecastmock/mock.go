package forecastmock

import (
	"context"

	"github.com/solarcast/solarcast/pkg/forecast"
	"github.com/solarcast/solarcast/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockFetcher struct {
	mock.Mock
}

var _ forecast.Fetcher = (*MockFetcher)(nil)

func (m *MockFetcher) Fetch(ctx context.Context, offsetDays int) (types.ForecastSeries, error) {
	args := m.Called(ctx, offsetDays)
	if s, ok := args.Get(0).(types.ForecastSeries); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
