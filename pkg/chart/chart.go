package chart

import (
	"fmt"
	"io"
	"time"

	"github.com/solarcast/solarcast/pkg/types"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	Title      = "Solar Energy Forecast"
	XAxisLabel = "Date"
	YAxisLabel = "Forecasted Solar Production"

	defaultWidth  = 960
	defaultHeight = 480
)

var lineColor = drawing.ColorFromHex("28527A")

// Format is an output image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat returns the Format named by s. An empty string is SVG.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported chart format: %s", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) renderer() chart.RendererProvider {
	if f == FormatPNG {
		return chart.PNG
	}
	return chart.SVG
}

func timeToFloat(t time.Time) float64 {
	return float64(t.UnixNano())
}

func formatDate(v interface{}) string {
	switch tv := v.(type) {
	case float64:
		return time.Unix(0, int64(tv)).UTC().Format(types.DateLayout)
	case time.Time:
		return tv.UTC().Format(types.DateLayout)
	default:
		return ""
	}
}

func formatMW(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f MW", f)
	}
	return ""
}

// monthlyTicks returns a tick on the first day of every month between from and
// to inclusive.
func monthlyTicks(from, to time.Time) []chart.Tick {
	from = from.UTC()
	to = to.UTC()
	var ticks []chart.Tick
	m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	if m.Before(from) {
		m = m.AddDate(0, 1, 0)
	}
	for ; !m.After(to); m = m.AddDate(0, 1, 0) {
		ticks = append(ticks, chart.Tick{Value: timeToFloat(m), Label: m.Format(types.DateLayout)})
	}
	return ticks
}

// Render draws series as a line chart of date against forecast value. Points
// with an invalid timestamp are skipped.
func Render(w io.Writer, series types.ForecastSeries, format Format) error {
	valid := make(types.ForecastSeries, 0, len(series))
	xs := make([]time.Time, 0, len(series))
	for _, p := range series {
		if !p.Valid {
			continue
		}
		valid = append(valid, p)
		xs = append(xs, p.Timestamp.UTC())
	}
	ys := valid.Values()
	if len(xs) == 0 {
		return fmt.Errorf("no points to chart")
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := range xs {
		if xs[i].Before(minX) {
			minX = xs[i]
		}
		if xs[i].After(maxX) {
			maxX = xs[i]
		}
		minY = min(minY, ys[i])
		maxY = max(maxY, ys[i])
	}
	// go-chart refuses to draw a zero-width range
	if !maxX.After(minX) {
		minX = minX.Add(-12 * time.Hour)
		maxX = maxX.Add(12 * time.Hour)
	}
	if maxY <= minY {
		minY--
		maxY++
	}

	xAxis := chart.XAxis{
		Name:           XAxisLabel,
		ValueFormatter: formatDate,
		Range:          &chart.ContinuousRange{Min: timeToFloat(minX), Max: timeToFloat(maxX)},
	}
	// fall back to automatic ticks when the window is within a single month
	if ticks := monthlyTicks(minX, maxX); len(ticks) >= 2 {
		xAxis.Ticks = ticks
	}

	graph := chart.Chart{
		Title:  Title,
		Width:  defaultWidth,
		Height: defaultHeight,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		XAxis: xAxis,
		YAxis: chart.YAxis{
			Name:           YAxisLabel,
			ValueFormatter: formatMW,
			Range:          &chart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: YAxisLabel,
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	if err := graph.Render(format.renderer(), w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
