package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/solarcast/solarcast/pkg/chart"
	"github.com/solarcast/solarcast/pkg/forecast"
	"github.com/solarcast/solarcast/pkg/log"
	"github.com/solarcast/solarcast/pkg/types"
)

// parseDateRange reads the start and end query parameters as YYYY-MM-DD dates.
func parseDateRange(r *http.Request) (types.DateRange, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		return types.DateRange{}, fmt.Errorf("start and end are required")
	}

	start, err := civil.ParseDate(startStr)
	if err != nil {
		return types.DateRange{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := civil.ParseDate(endStr)
	if err != nil {
		return types.DateRange{}, fmt.Errorf("invalid end date: %w", err)
	}
	return types.DateRange{Start: start, End: end}, nil
}

// predictionStatus maps a prediction error to an HTTP status code.
func predictionStatus(err error) int {
	var (
		vErr *forecast.ValidationError
		nErr *forecast.NetworkError
		pErr *forecast.ParseError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.As(err, &nErr), errors.As(err, &pErr):
		return http.StatusBadGateway
	case errors.Is(err, forecast.ErrEmptyWindow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// predict runs the pipeline and logs failures.
func (s *Server) predict(r *http.Request, dr types.DateRange) (types.Prediction, error) {
	ctx := r.Context()
	pred, err := s.pipeline.Predict(ctx, dr)
	if err != nil {
		level := slog.LevelWarn
		if predictionStatus(err) >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Ctx(ctx).Log(ctx, level, "prediction failed", slog.String("range", dr.String()), slog.Any("error", err))
	}
	return pred, err
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	dr, err := parseDateRange(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pred, err := s.predict(r, dr)
	if err != nil {
		writeJSONError(w, forecast.Message(dr, err), predictionStatus(err))
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(pred); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, err := chart.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	dr, err := parseDateRange(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pred, err := s.predict(r, dr)
	if err != nil {
		writeJSONError(w, forecast.Message(dr, err), predictionStatus(err))
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, pred.Series, format); err != nil {
		log.Ctx(r.Context()).ErrorContext(r.Context(), "failed to render chart", slog.Any("error", err))
		writeJSONError(w, "failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("Content-Type", format.ContentType())
	if _, err := w.Write(buf.Bytes()); err != nil {
		panic(http.ErrAbortHandler)
	}
}
