package server

import (
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/solarcast/solarcast/pkg/forecast"
	"github.com/solarcast/solarcast/pkg/forecast/forecastmock"
	"github.com/solarcast/solarcast/pkg/log"
	"github.com/solarcast/solarcast/pkg/types"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

var testNow = time.Date(2023, time.September, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(f *forecastmock.MockFetcher) *Server {
	return &Server{
		pipeline:   forecast.NewPipeline(forecast.DefaultConfig(), f),
		serverName: "solarcast-test",
		now:        func() time.Time { return testNow },
	}
}

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return d
}

// sampleSeries is the forecast used throughout the server tests:
// 2023-07-01..2023-07-03 with values 10.2, 15.7, 9.9.
func sampleSeries(t *testing.T) types.ForecastSeries {
	t.Helper()
	var s types.ForecastSeries
	for i, v := range []float64{10.2, 15.7, 9.9} {
		s = append(s, types.ForecastPoint{
			Timestamp: mustDate(t, "2023-07-01").AddDays(i).In(time.UTC),
			Valid:     true,
			Value:     v,
		})
	}
	return s
}
