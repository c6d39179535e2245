package forecast

import (
	"fmt"
	"math"

	"cloud.google.com/go/civil"
	"github.com/solarcast/solarcast/pkg/types"
)

// Window returns the points of series dated on or after start. Dates are
// compared as YYYY-MM-DD strings, so points with an invalid timestamp (which
// format as an empty string) are never included. series is not modified.
func Window(series types.ForecastSeries, start civil.Date) types.ForecastSeries {
	from := start.String()
	windowed := make(types.ForecastSeries, 0, len(series))
	for _, p := range series {
		if p.Date() >= from {
			windowed = append(windowed, p)
		}
	}
	return windowed
}

// Summarize returns the mean, min and max of the series values, each rounded
// up to the nearest integer. It returns ErrEmptyWindow for an empty series and a
// *ParseError when a value rounds outside the int range.
func Summarize(series types.ForecastSeries) (types.ForecastSummary, error) {
	if len(series) == 0 {
		return types.ForecastSummary{}, ErrEmptyWindow
	}

	sum := 0.0
	minVal := series[0].Value
	maxVal := series[0].Value
	for _, p := range series {
		sum += p.Value
		minVal = math.Min(minVal, p.Value)
		maxVal = math.Max(maxVal, p.Value)
	}
	mean := sum / float64(len(series))
	if math.Ceil(maxVal) >= maxValue || minVal < -maxValue {
		return types.ForecastSummary{}, &ParseError{Err: fmt.Errorf("forecast values out of range [%g, %g]", minVal, maxVal)}
	}

	return types.ForecastSummary{
		Average: int(math.Ceil(mean)),
		Min:     int(math.Ceil(minVal)),
		Max:     int(math.Ceil(maxVal)),
	}, nil
}

// WindowAndSummarize windows series to start and summarizes the result.
func WindowAndSummarize(series types.ForecastSeries, start civil.Date) (types.ForecastSeries, types.ForecastSummary, error) {
	windowed := Window(series, start)
	summary, err := Summarize(windowed)
	if err != nil {
		return nil, types.ForecastSummary{}, err
	}
	return windowed, summary, nil
}
