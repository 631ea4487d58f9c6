package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7800", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 3*time.Second, cfg.MiniApp.ProbeTimeout)
	assert.Equal(t, 10*time.Second, cfg.Agent.Timeout)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SHELL_PORT", "9000")
	t.Setenv("SHELL_LOG_LEVEL", "debug")
	t.Setenv("SHELL_RATE_LIMIT_ENABLED", "false")
	t.Setenv("SHELL_AGENT_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Agent.Timeout)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("SHELL_AGENT_TIMEOUT", "not-a-duration")

	cfg := LoadOrDefault()
	assert.Equal(t, 10*time.Second, cfg.Agent.Timeout)
}

func TestDefaultMatchesLoad(t *testing.T) {
	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Server, loaded.Server)
	assert.Equal(t, Default().Agent, loaded.Agent)
}
