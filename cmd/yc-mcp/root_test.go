package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yc-mcp-go/internal/config"
)

func TestApplyFlags_OnlyChangedFlagsWin(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--transport", "http", "--fetch-timeout", "3s"}))

	cfg := config.DefaultConfig()
	cfg.Addr = ":9999"
	flags := config.Config{
		Transport:    "http",
		Addr:         ":8080",
		FetchTimeout: 3 * time.Second,
	}
	applyFlags(cmd, &cfg, flags)

	assert.Equal(t, config.TransportHTTP, cfg.Transport)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, ":9999", cfg.Addr, "unset flags leave file and env values alone")
}

func TestRootCmd_RejectsInvalidConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--transport", "carrier-pigeon",
	})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})

	assert.Error(t, cmd.Execute())
}
