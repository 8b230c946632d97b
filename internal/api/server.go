// Package api serves fixes, series and element metadata over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/star/issblh/internal/auth"
	"github.com/star/issblh/internal/ephemeris"
	"github.com/star/issblh/internal/health"
	"github.com/star/issblh/internal/metrics"
	"github.com/star/issblh/internal/tle"
)

// Config holds the server settings.
type Config struct {
	Addr       string
	TrustProxy bool // read the client IP from X-Forwarded-For / X-Real-IP
	Auth       auth.Config
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server. ready is consulted by /readyz.
func NewServer(cfg Config, logger *slog.Logger, gen *ephemeris.Generator, store *tle.Store, ready ...health.Check) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           newHandler(cfg, logger, gen, store, ready...),
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func newHandler(cfg Config, logger *slog.Logger, gen *ephemeris.Generator, store *tle.Store, ready ...health.Check) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(ready...))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/position", positionHandler(logger, gen))
	mux.HandleFunc("GET /api/v1/ephemeris", ephemerisHandler(logger, gen))
	mux.HandleFunc("GET /api/v1/elements", elementsHandler(logger, gen, store))

	// metrics -> logging -> auth -> mux
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)
	return handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx
// expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// quiet reports whether requests to path are logged at debug level.
func quiet(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

// responseRecorder captures the status and body size for the request log.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rr, r)

			level := slog.LevelInfo
			switch {
			case rr.status >= 500:
				level = slog.LevelError
			case quiet(r.URL.Path):
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", rr.status,
				"bytes", rr.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", clientIP(r, trustProxy),
			)
		})
	}
}
