package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"LLM_PROVIDER", "MAX_CONTEXT_TOKENS", "VOICE_MOCK", "CORS_ORIGINS", "SESSION_IDLE_TIMEOUT", "TIMEZONE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 32000, cfg.MaxContextTokens)
	assert.False(t, cfg.VoiceMock)
	assert.Empty(t, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, "X-Mira-User", cfg.AuthHeader)
	assert.Equal(t, "@every 1m", cfg.PhaseSyncCron)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("MAX_CONTEXT_TOKENS", "8000")
	t.Setenv("VOICE_MOCK", "true")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("SESSION_IDLE_TIMEOUT", "90s")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg := Load()
	assert.Equal(t, 8000, cfg.MaxContextTokens)
	assert.True(t, cfg.VoiceMock)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 90*time.Second, cfg.SessionIdleTimeout)

	key, base := cfg.LLMKey()
	assert.Equal(t, "sk-ant", key)
	assert.Empty(t, base)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Europe/Berlin"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	_, err = (&Config{Timezone: "Nowhere/Land"}).Location()
	assert.Error(t, err)
}
