package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
	"github.com/schollz/progressbar/v3"

	"github.com/solarcast/solarcast/pkg/chart"
	"github.com/solarcast/solarcast/pkg/forecast"
	"github.com/solarcast/solarcast/pkg/log"
	"github.com/solarcast/solarcast/pkg/types"
)

func main() {
	p := forecast.Configured()

	startStr := lflag.String("start", "", "Start date (YYYY-MM-DD). Defaults to today.")
	endStr := lflag.String("end", "", "End date (YYYY-MM-DD). Defaults to today.")
	chartOut := lflag.String("chart-out", "", "Write the forecast chart as a PNG to this path")

	lflag.Configure()

	level, err := log.LevelFromLLog(llog.GetLevel())
	if err != nil {
		panic(err)
	}
	log.SetDefaultLogLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, p, *startStr, *endStr, *chartOut); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseDate(name, s string, fallback civil.Date) (civil.Date, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid %s date %q: expected YYYY-MM-DD", name, s)
	}
	return d, nil
}

func run(ctx context.Context, p *forecast.Pipeline, startStr, endStr, chartOut string) error {
	today := civil.DateOf(time.Now().UTC())
	if minDate := p.Config().MinDate; today.Before(minDate) {
		today = minDate
	}

	start, err := parseDate("start", startStr, today)
	if err != nil {
		return err
	}
	end, err := parseDate("end", endStr, today)
	if err != nil {
		return err
	}
	dr := types.DateRange{Start: start, End: end}

	// validate before showing the spinner so bad input fails immediately
	if err := p.Validate(dr); err != nil {
		return errors.New(forecast.Message(dr, err))
	}

	pred, err := predictWithSpinner(ctx, p, dr)
	if err != nil {
		return errors.New(forecast.Message(dr, err))
	}

	fmt.Println(pred.Summary.Text(pred.Range))

	if chartOut != "" {
		f, err := os.Create(chartOut)
		if err != nil {
			return fmt.Errorf("failed to create chart file: %w", err)
		}
		if err := chart.Render(f, pred.Series, chart.FormatPNG); err != nil {
			f.Close()
			return fmt.Errorf("failed to render chart: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write chart file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "chart written to %s\n", chartOut)
	}
	return nil
}

// predictWithSpinner runs Predict while a spinner is shown on stderr.
func predictWithSpinner(ctx context.Context, p *forecast.Pipeline, dr types.DateRange) (types.Prediction, error) {
	bar := progressbar.Default(-1, "Fetching forecast data...")

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				_ = bar.Add(1)
			}
		}
	}()

	pred, err := p.Predict(ctx, dr)
	close(done)
	<-stopped
	_ = bar.Finish()
	return pred, err
}
