package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"yc-mcp-go/internal/config"
	"yc-mcp-go/internal/directory"
	"yc-mcp-go/internal/mcp"
	"yc-mcp-go/internal/server"
	"yc-mcp-go/internal/session"
	"yc-mcp-go/internal/telemetry"
	"yc-mcp-go/internal/tools"
	"yc-mcp-go/internal/tools/yc"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	var (
		configPath string
		flags      config.Config
	)

	cmd := &cobra.Command{
		Use:   "yc-mcp",
		Short: "An MCP server for the YC company directory",
		Long: `yc-mcp exposes the public YC open-source company directory to MCP clients.

It serves five read-only tools: list_top_companies, list_companies_by_batch,
search_companies, list_all_batches and search_batches. By default it speaks
newline-delimited JSON-RPC over stdin/stdout; --transport http serves the
Streamable HTTP transport on /mcp instead.

Settings come from the optional YAML file, then YC_MCP_* environment
variables, then flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, flags)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return run(ctx, cfg)
		},
	}

	defaults := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "yc-mcp.yaml", "Path to the YAML config file (skipped if missing)")
	f.StringVar(&flags.Transport, "transport", defaults.Transport, "Transport to serve: stdio or http")
	f.StringVar(&flags.Addr, "addr", defaults.Addr, "Listen address for the http transport")
	f.StringVar(&flags.BaseURL, "base-url", defaults.BaseURL, "Root URL of the directory dataset")
	f.StringVar(&flags.UserAgent, "user-agent", defaults.UserAgent, "User-Agent sent to the directory dataset")
	f.StringVar(&flags.LogLevel, "log-level", defaults.LogLevel, "Log level (trace, debug, info, warn, error)")
	f.DurationVar(&flags.FetchTimeout, "fetch-timeout", defaults.FetchTimeout, "Timeout per upstream request (0 for none)")
	f.DurationVar(&flags.SessionTimeout, "session-timeout", defaults.SessionTimeout, "Idle lifetime of an http session")
	f.DurationVar(&flags.CleanupInterval, "cleanup-interval", defaults.CleanupInterval, "How often expired http sessions are swept")

	cmd.Version = fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date)
	return cmd
}

// applyFlags copies the flags the user actually set over cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags config.Config) {
	changed := cmd.Flags().Changed
	if changed("transport") {
		cfg.Transport = flags.Transport
	}
	if changed("addr") {
		cfg.Addr = flags.Addr
	}
	if changed("base-url") {
		cfg.BaseURL = flags.BaseURL
	}
	if changed("user-agent") {
		cfg.UserAgent = flags.UserAgent
	}
	if changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if changed("fetch-timeout") {
		cfg.FetchTimeout = flags.FetchTimeout
	}
	if changed("session-timeout") {
		cfg.SessionTimeout = flags.SessionTimeout
	}
	if changed("cleanup-interval") {
		cfg.CleanupInterval = flags.CleanupInterval
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, _ := cfg.Level()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func run(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg)
	logger.Info().
		Str("version", version).
		Str("transport", cfg.Transport).
		Str("base_url", cfg.BaseURL).
		Msg("Starting YC directory MCP server")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(reg)

	httpClient := &http.Client{
		Timeout: cfg.FetchTimeout,
		Transport: &directory.HeaderTransport{
			Base: &telemetry.UpstreamTransport{
				Base:    directory.NewTransport(),
				Metrics: metrics,
			},
			Headers: http.Header{"User-Agent": []string{cfg.UserAgent}},
		},
	}
	client := directory.NewClient(cfg.BaseURL,
		directory.WithHTTPClient(httpClient),
		directory.WithLogger(logger),
	)
	svc := directory.NewService(client, logger)

	registry := tools.NewRegistry()
	if err := yc.Register(registry, svc); err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}
	for _, def := range registry.List() {
		logger.Debug().Str("tool", def.Name).Msg("Registered tool")
	}

	handler := mcp.NewHandler(registry,
		mcp.Implementation{Name: "yc-directory", Title: "YC Directory", Version: version},
		logger,
		mcp.WithCaller(telemetry.NewInstrumentedCaller(registry, metrics)),
	)

	g, ctx := errgroup.WithContext(ctx)

	switch cfg.Transport {
	case config.TransportHTTP:
		serveHTTP(ctx, g, cfg, handler, metrics, reg, logger)
	default:
		serveStdio(ctx, g, handler, logger)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}

func serveStdio(ctx context.Context, g *errgroup.Group, handler *mcp.Handler, logger zerolog.Logger) {
	transport := mcp.NewStdioTransport(handler, os.Stdin, os.Stdout, logger)

	g.Go(func() error {
		// A read from stdin can't be interrupted, so a signal abandons the
		// pending read instead of waiting for the next line.
		errc := make(chan error, 1)
		go func() { errc <- transport.Run(ctx) }()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
			return nil
		}
	})
}

func serveHTTP(ctx context.Context, g *errgroup.Group, cfg config.Config, handler *mcp.Handler, metrics *telemetry.Metrics, reg *prometheus.Registry, logger zerolog.Logger) {
	manager := session.NewManager(session.NewMemoryStore(logger), session.ManagerConfig{
		SessionTimeout: cfg.SessionTimeout,
		Observer:       metrics,
	}, logger)
	janitor := session.NewJanitor(manager, cfg.CleanupInterval, logger)

	g.Go(func() error {
		return janitor.Run(ctx)
	})

	g.Go(func() error {
		h, err := server.New(server.Config{
			MCP:      mcp.NewHTTPHandler(handler, manager, logger),
			Sessions: manager,
			Metrics:  metrics,
			Gatherer: reg,
			Logger:   logger,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", cfg.Addr).Msg("Starting server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("serving http: %w", err)
				return
			}
			errc <- nil
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		logger.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)

		// No request can reach the sessions once the listener is down.
		if closeErr := manager.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("Failed to close session store")
		}
		return err
	})
}
