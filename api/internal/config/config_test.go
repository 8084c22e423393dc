package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "LLM_PROVIDER", "MODEL_TIMEOUT", "MAX_IMAGES", "CORS_ORIGINS", "RATE_WINDOW"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, 90*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 10, cfg.MaxImages)
	assert.EqualValues(t, 50<<20, cfg.MaxBodyBytes)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, time.Hour, cfg.RateWindow)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("MODEL_TIMEOUT", "30s")
	t.Setenv("MAX_IMAGES", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RATE_LIMIT", "not-a-number")

	cfg := Load()
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, 30*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 3, cfg.MaxImages)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 100, cfg.RateLimit)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			LLMProvider:          "stub",
			OpenAIResponseFormat: "json_object",
			ModelTimeout:         time.Second,
			MaxImageBytes:        1,
			MaxBodyBytes:         1,
			RateLimit:            1,
			RateWindow:           time.Second,
		}
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"provider", func(c *Config) { c.LLMProvider = "deepseek" }},
		{"format", func(c *Config) { c.OpenAIResponseFormat = "text" }},
		{"timeout", func(c *Config) { c.ModelTimeout = 0 }},
		{"images", func(c *Config) { c.MaxImages = -1 }},
		{"rate", func(c *Config) { c.RateWindow = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
