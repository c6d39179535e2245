package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/levenlabs/go-lflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/solarcast/solarcast/pkg/forecast"
	"github.com/solarcast/solarcast/pkg/log"
	"github.com/solarcast/solarcast/web"
)

// Server serves the forecast dashboard and its JSON API.
type Server struct {
	pipeline *forecast.Pipeline

	listenAddr       string
	httpServer       *http.Server
	serverName       string
	webCacheDuration time.Duration

	// now is replaced in tests
	now func() time.Time
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(p *forecast.Pipeline) *Server {
	srv := &Server{
		pipeline:   p,
		serverName: "solarcast",
		now:        time.Now,
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	webCacheDuration := lflag.Duration("web-cache-duration", 0, "Duration to cache static files (e.g. 1h, 5m). 0 means no cache.")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.webCacheDuration = *webCacheDuration
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/predict", s.handlePredict)
	mux.HandleFunc("GET /api/chart", s.handleChart)
	mux.HandleFunc("GET /{$}", s.handleDashboard)

	staticFS, err := fs.Sub(web.FS, "static")
	if err != nil {
		panic(fmt.Errorf("failed to get static fs: %w", err))
	}
	mux.Handle("GET /static/", s.staticHandler(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	return log.Middleware(s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux))))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:        s.listenAddr,
		Handler:     s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.writeTimeout(),
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// writeTimeout leaves room for a prediction to wait on the forecast service for
// its full timeout. Without a fetch timeout responses are not cut off either.
func (s *Server) writeTimeout() time.Duration {
	timeout := s.pipeline.Config().Timeout
	if timeout <= 0 {
		return 0
	}
	return timeout + 30*time.Second
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) staticHandler(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.webCacheDuration > 0 {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.webCacheDuration.Seconds())))
		}
		h.ServeHTTP(w, r)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
