package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "http://localhost:3001", cfg.ShopAPIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout())
	assert.Equal(t, 10*time.Second, cfg.ToolTimeout())
	assert.Equal(t, 5*time.Minute, cfg.PlanCacheTTL())
	assert.True(t, cfg.EnableKnowledge)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_TIMEOUT_SECONDS", "5")
	t.Setenv("ENABLE_KNOWLEDGE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout())
	assert.False(t, cfg.EnableKnowledge)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("LLM_TIMEOUT_SECONDS", "not-a-number")

	_, err := Load()
	require.Error(t, err)
}
