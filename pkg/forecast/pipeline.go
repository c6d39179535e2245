package forecast

import (
	"context"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/solarcast/solarcast/pkg/log"
	"github.com/solarcast/solarcast/pkg/types"
)

// Pipeline turns a date range into a windowed, summarized forecast. It keeps no
// state between calls to Predict.
type Pipeline struct {
	cfg     Config
	fetcher Fetcher
}

// NewPipeline returns a pipeline using cfg and fetching through f.
func NewPipeline(cfg Config, f Fetcher) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		fetcher: f,
	}
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Translate returns the day offset of end from the configured anchor date.
func (p *Pipeline) Translate(end civil.Date) int {
	return DayOffset(p.cfg.Anchor, end)
}

// Validate returns a *ValidationError if r cannot be predicted.
func (p *Pipeline) Validate(r types.DateRange) error {
	if !r.Start.IsValid() || !r.End.IsValid() {
		return &ValidationError{Range: r, Reason: "Invalid start or end date."}
	}
	if !r.Start.Before(r.End) {
		return &ValidationError{Range: r, Reason: "End date must be after start date."}
	}
	// End is after Start, so checking Start covers both
	if r.Start.Before(p.cfg.MinDate) {
		return &ValidationError{Range: r, Reason: "Dates must be on or after " + p.cfg.MinDate.String() + "."}
	}
	return nil
}

// Predict validates r, fetches the forecast for r.End and returns the points on
// or after r.Start along with their summary.
//
// It returns a *ValidationError without contacting the forecast service when r is
// invalid, the fetcher's *NetworkError or *ParseError when the fetch fails, and
// ErrEmptyWindow when no forecast point falls on or after r.Start.
func (p *Pipeline) Predict(ctx context.Context, r types.DateRange) (types.Prediction, error) {
	pred, err := p.predict(ctx, r)
	predictionsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	return pred, err
}

func (p *Pipeline) predict(ctx context.Context, r types.DateRange) (types.Prediction, error) {
	if err := p.Validate(r); err != nil {
		log.Ctx(ctx).DebugContext(ctx, "invalid prediction range", slog.String("range", r.String()), slog.Any("error", err))
		return types.Prediction{}, err
	}

	offset := p.Translate(r.End)
	log.Ctx(ctx).DebugContext(
		ctx,
		"predicting",
		slog.String("start", r.Start.String()),
		slog.String("end", r.End.String()),
		slog.Int("offsetDays", offset),
	)

	series, err := p.fetcher.Fetch(ctx, offset)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to fetch forecast", slog.Int("offsetDays", offset), slog.Any("error", err))
		return types.Prediction{}, err
	}

	windowed, summary, err := WindowAndSummarize(series, r.Start)
	windowPoints.Observe(float64(len(windowed)))
	if err != nil {
		log.Ctx(ctx).WarnContext(
			ctx,
			"empty forecast window",
			slog.String("start", r.Start.String()),
			slog.Int("fetched", len(series)),
		)
		return types.Prediction{}, err
	}

	return types.Prediction{
		Range:      r,
		OffsetDays: offset,
		Series:     windowed,
		Summary:    summary,
	}, nil
}
