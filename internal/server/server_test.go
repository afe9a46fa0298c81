package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yc-mcp-go/internal/mcp"
	"yc-mcp-go/internal/session"
	"yc-mcp-go/internal/telemetry"
	"yc-mcp-go/internal/tools"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	manager := session.NewManager(session.NewMemoryStore(zerolog.Nop()), session.ManagerConfig{
		SessionTimeout: time.Hour,
		Observer:       metrics,
	}, zerolog.Nop())

	handler := mcp.NewHandler(tools.NewRegistry(), mcp.Implementation{Name: "yc", Version: "test"}, zerolog.Nop())

	h, err := New(Config{
		MCP:      mcp.NewHTTPHandler(handler, manager, zerolog.Nop()),
		Sessions: manager,
		Metrics:  metrics,
		Gatherer: reg,
		Logger:   zerolog.Nop(),
		Version:  "test",
	})
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func TestNew_RequiresMCP(t *testing.T) {
	_, err := New(Config{Logger: zerolog.Nop()})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := setupServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]any{"status": "ok", "version": "test", "sessions": float64(0)}, body)
}

type failingCounter struct{}

func (failingCounter) Count(ctx context.Context) (int, error) {
	return 0, errors.New("store unavailable")
}

func TestHealth_SessionStoreFailure(t *testing.T) {
	handler := mcp.NewHandler(tools.NewRegistry(), mcp.Implementation{Name: "yc", Version: "test"}, zerolog.Nop())
	manager := session.NewManager(session.NewMemoryStore(zerolog.Nop()), session.ManagerConfig{SessionTimeout: time.Hour}, zerolog.Nop())

	h, err := New(Config{
		MCP:      mcp.NewHTTPHandler(handler, manager, zerolog.Nop()),
		Sessions: failingCounter{},
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestMCPRouteAndMetrics(t *testing.T) {
	ts := setupServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/mcp", strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","clientInfo":{"name":"t","version":"1"}}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:6274")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(mcp.SessionHeader))
	assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), mcp.SessionHeader)

	resp, err = ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(body), `mcp_sessions_active 1`)

	resp, err = ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, float64(1), health["sessions"])
	assert.Contains(t, string(body), `http_requests_total{endpoint="/mcp",method="POST",status_code="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	ts := setupServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/mcp", nil)
	req.Header.Set("Origin", "http://localhost:6274")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Mcp-Session-Id")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Mcp-Session-Id")
}
