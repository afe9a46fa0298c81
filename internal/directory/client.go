package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the root of the public YC directory dataset.
const DefaultBaseURL = "https://yc-oss.github.io/api"

// Client fetches JSON collections from the directory dataset.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client used for fetches.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "directory_client").Logger()
	}
}

// NewClient creates a client rooted at baseURL. The default HTTP client has
// no timeout: a stalled upstream blocks the call until ctx is done.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Transport: NewTransport()},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// FetchCompanies GETs path and decodes a JSON array of company records.
func (c *Client) FetchCompanies(ctx context.Context, op, path string) ([]Company, error) {
	url := c.URL(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newFetchError(op, url, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("op", op).
			Str("url", url).
			Msg("Upstream fetch failed")
		return nil, newFetchError(op, url, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("op", op).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Upstream fetch completed")

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newStatusError(op, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newFetchError(op, url, fmt.Errorf("reading response body: %w", err))
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var companies []Company
	if err := dec.Decode(&companies); err != nil {
		return nil, newDecodeError(op, url, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, newDecodeError(op, url, fmt.Errorf("unexpected data after top-level value"))
	}
	if companies == nil {
		// "null" decodes without error but is not a collection.
		return nil, newDecodeError(op, url, fmt.Errorf("expected array, got null"))
	}
	return companies, nil
}
