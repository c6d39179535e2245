package types

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DateLayout is the layout every forecast date is rendered and compared with.
const DateLayout = "2006-01-02"

// DateRange is the user-selected prediction window. Start is inclusive and End is
// used to compute the offset sent to the forecast service.
type DateRange struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

func (r DateRange) String() string {
	return r.Start.String() + " to " + r.End.String()
}

// ForecastPoint is a single row returned by the forecast service.
// Valid is false when the row's timestamp could not be parsed.
type ForecastPoint struct {
	Timestamp time.Time `json:"ts"`
	Valid     bool      `json:"valid"`
	Value     float64   `json:"yhat"`
}

// Date returns the point's UTC calendar date as YYYY-MM-DD, or an empty string
// for a point with an invalid timestamp.
func (p ForecastPoint) Date() string {
	if !p.Valid {
		return ""
	}
	return p.Timestamp.UTC().Format(DateLayout)
}

// ForecastSeries is a sequence of points in the order the service returned them.
type ForecastSeries []ForecastPoint

// Values returns the forecast values of the series.
func (s ForecastSeries) Values() []float64 {
	vals := make([]float64, len(s))
	for i, p := range s {
		vals[i] = p.Value
	}
	return vals
}

// ForecastSummary holds the rounded-up statistics of a forecast window, in MW.
type ForecastSummary struct {
	Average int `json:"average"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

// Text renders the summary the way it is shown to users.
func (s ForecastSummary) Text(r DateRange) string {
	return fmt.Sprintf(
		"From %s to %s:\n- Average Solar Production: %d MW\n- Minimum Solar Production: %d MW\n- Maximum Solar Production: %d MW",
		r.Start, r.End, s.Average, s.Min, s.Max,
	)
}

// Prediction is the result of one prediction request.
type Prediction struct {
	Range      DateRange       `json:"range"`
	OffsetDays int             `json:"offsetDays"`
	Series     ForecastSeries  `json:"series"`
	Summary    ForecastSummary `json:"summary"`
}
