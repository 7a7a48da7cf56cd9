package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GENERATOR_CONCURRENCY", "")
	t.Setenv("REDIS_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
	assert.Equal(t, 0, cfg.Generator.Concurrency)
	assert.Equal(t, time.Duration(0), cfg.Generator.ItemTimeout)
	assert.Equal(t, 168*time.Hour, cfg.Generator.RecordCacheTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Error(t, cfg.ValidateAI())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GENERATOR_CONCURRENCY", "4")
	t.Setenv("GENERATOR_ITEM_TIMEOUT_SECONDS", "90")
	t.Setenv("PAGE_HINTS_ENABLED", "true")
	t.Setenv("OPENAI_ENABLE_FALLBACK", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.NoError(t, cfg.ValidateAI())
	assert.Equal(t, 4, cfg.Generator.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.Generator.ItemTimeout)
	assert.True(t, cfg.Generator.PageHintsEnabled)
	assert.False(t, cfg.OpenAI.EnableFallback)
}

func TestLoadRejectsNegativeConcurrency(t *testing.T) {
	t.Setenv("GENERATOR_CONCURRENCY", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GENERATOR_CONCURRENCY")
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
}
