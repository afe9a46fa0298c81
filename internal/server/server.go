package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"yc-mcp-go/internal/mcp"
	"yc-mcp-go/internal/telemetry"
)

// SessionCounter reports how many MCP sessions are open.
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

// Config contains the server dependencies.
type Config struct {
	MCP      *mcp.HTTPHandler
	Sessions SessionCounter
	Metrics  *telemetry.Metrics
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
	Version  string
}

// New creates a new HTTP handler with the given configuration.
func New(cfg Config) (http.Handler, error) {
	if cfg.MCP == nil {
		return nil, errors.New("server: MCP handler is required")
	}
	logger := cfg.Logger.With().Str("component", "http_server").Logger()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	if cfg.Metrics != nil {
		r.Use(telemetry.HTTPMetricsMiddleware(cfg.Metrics))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mcp.SessionHeader, "Mcp-Protocol-Version", "Last-Event-ID"},
		ExposedHeaders:   []string{mcp.SessionHeader, "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]any{
			"status":  "ok",
			"version": cfg.Version,
		}
		if cfg.Sessions != nil {
			count, err := cfg.Sessions.Count(r.Context())
			if err != nil {
				logger.Error().Err(err).Msg("Failed to count sessions")
				render.Status(r, http.StatusServiceUnavailable)
				health["status"] = "degraded"
			} else {
				health["sessions"] = count
			}
		}
		render.JSON(w, r, health)
	})

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/mcp", cfg.MCP.HandlePost)
	r.Delete("/mcp", cfg.MCP.HandleDelete)
	r.Get("/mcp", cfg.MCP.HandleGet)

	return r, nil
}

// requestLogger logs one line per request through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			event := logger.Debug()
			if status >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("HTTP request")
		})
	}
}
