// Package config loads runtime configuration from an optional YAML file and
// YC_MCP_* environment variables. Command-line flags are applied on top by
// the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"yc-mcp-go/internal/directory"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds runtime configuration for the server.
type Config struct {
	Transport string `yaml:"transport"`  // YC_MCP_TRANSPORT
	Addr      string `yaml:"addr"`       // YC_MCP_ADDR
	BaseURL   string `yaml:"base_url"`   // YC_MCP_BASE_URL
	UserAgent string `yaml:"user_agent"` // YC_MCP_USER_AGENT
	LogLevel  string `yaml:"log_level"`  // YC_MCP_LOG_LEVEL

	// FetchTimeout bounds each upstream request. Zero leaves requests
	// unbounded so only the caller's context ends them.
	FetchTimeout time.Duration `yaml:"fetch_timeout"` // YC_MCP_FETCH_TIMEOUT

	SessionTimeout  time.Duration `yaml:"session_timeout"`  // YC_MCP_SESSION_TIMEOUT
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // YC_MCP_CLEANUP_INTERVAL
}

const (
	envKeyTransport       = "YC_MCP_TRANSPORT"
	envKeyAddr            = "YC_MCP_ADDR"
	envKeyBaseURL         = "YC_MCP_BASE_URL"
	envKeyUserAgent       = "YC_MCP_USER_AGENT"
	envKeyLogLevel        = "YC_MCP_LOG_LEVEL"
	envKeyFetchTimeout    = "YC_MCP_FETCH_TIMEOUT"
	envKeySessionTimeout  = "YC_MCP_SESSION_TIMEOUT"
	envKeyCleanupInterval = "YC_MCP_CLEANUP_INTERVAL"
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Transport:       TransportStdio,
		Addr:            ":8080",
		BaseURL:         directory.DefaultBaseURL,
		UserAgent:       "yc-mcp-go",
		LogLevel:        "info",
		FetchTimeout:    0,
		SessionTimeout:  time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}

// Load starts from the defaults, overlays the YAML file at path if it
// exists, then overlays environment variables. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Transport = envOr(envKeyTransport, c.Transport)
	c.Addr = envOr(envKeyAddr, c.Addr)
	c.BaseURL = envOr(envKeyBaseURL, c.BaseURL)
	c.UserAgent = envOr(envKeyUserAgent, c.UserAgent)
	c.LogLevel = envOr(envKeyLogLevel, c.LogLevel)

	for key, dst := range map[string]*time.Duration{
		envKeyFetchTimeout:    &c.FetchTimeout,
		envKeySessionTimeout:  &c.SessionTimeout,
		envKeyCleanupInterval: &c.CleanupInterval,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

// Validate reports the first setting the server cannot run with.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportStdio, TransportHTTP)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}

	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must not be negative, got %s", c.FetchTimeout)
	}

	if c.Transport == TransportHTTP {
		if c.Addr == "" {
			return errors.New("addr is required for the http transport")
		}
		if c.SessionTimeout <= 0 {
			return fmt.Errorf("session_timeout must be positive, got %s", c.SessionTimeout)
		}
		if c.CleanupInterval <= 0 {
			return fmt.Errorf("cleanup_interval must be positive, got %s", c.CleanupInterval)
		}
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
