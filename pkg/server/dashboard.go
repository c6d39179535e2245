package server

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/solarcast/solarcast/pkg/chart"
	"github.com/solarcast/solarcast/pkg/common"
	"github.com/solarcast/solarcast/pkg/forecast"
	"github.com/solarcast/solarcast/pkg/log"
	"github.com/solarcast/solarcast/pkg/types"
	"github.com/solarcast/solarcast/web"
)

type dashboardData struct {
	Start      string
	End        string
	MinDate    string
	Error      string
	Prediction *types.Prediction
	Chart      template.HTML
	Version    string
}

// today returns the current UTC date, no earlier than the minimum date.
func (s *Server) today() civil.Date {
	d := civil.DateOf(s.now().UTC())
	if minDate := s.pipeline.Config().MinDate; d.Before(minDate) {
		return minDate
	}
	return d
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := s.today().String()
	data := dashboardData{
		Start:   today,
		End:     today,
		MinDate: s.pipeline.Config().MinDate.String(),
		Version: common.Version(),
	}
	status := http.StatusOK

	q := r.URL.Query()
	if q.Has("start") || q.Has("end") {
		data.Start = q.Get("start")
		data.End = q.Get("end")
		if dr, err := parseDateRange(r); err != nil {
			data.Error = "Please select a valid start and end date."
			status = http.StatusBadRequest
		} else if pred, err := s.predict(r, dr); err != nil {
			data.Error = forecast.Message(dr, err)
			status = predictionStatus(err)
		} else {
			data.Prediction = &pred
			var buf bytes.Buffer
			if err := chart.Render(&buf, pred.Series, chart.FormatSVG); err != nil {
				log.Ctx(ctx).ErrorContext(ctx, "failed to render chart", slog.Any("error", err))
			} else {
				// the SVG is generated entirely by the chart package
				data.Chart = template.HTML(buf.String())
			}
		}
	}

	var page bytes.Buffer
	if err := web.Templates.ExecuteTemplate(&page, "index.html", data); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to render dashboard", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(page.Bytes()); err != nil {
		panic(http.ErrAbortHandler)
	}
}
