package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.Poll.Interval())
	assert.Equal(t, "/api/generate", cfg.Backend.StartPath)
	assert.Equal(t, "Beginner", cfg.Generation.DefaultLevel)
}

func TestLoadFile(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default().Backend, cfg.Backend)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
backend:
  base_url: http://stories.internal:5000
poll:
  interval_ms: 250
generation:
  default_level: Advanced
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "http://stories.internal:5000", cfg.Backend.BaseURL)
		assert.Equal(t, "/api/status", cfg.Backend.StatusPath)
		assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval())
		assert.Equal(t, "Advanced", cfg.Generation.DefaultLevel)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "http://env-host:9000/")
		t.Setenv("POLL_INTERVAL_MS", "50")

		cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "http://env-host:9000", cfg.Backend.BaseURL)
		assert.Equal(t, 50, cfg.Poll.IntervalMS)
	})

	t.Run("invalid level rejected", func(t *testing.T) {
		t.Setenv("STORY_LEVEL", "Expert")

		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "default_level")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("poll: [oops"), 0644))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero poll interval", func(c *Config) { c.Poll.IntervalMS = 0 }},
		{"zero timeout", func(c *Config) { c.HTTPClient.TimeoutSeconds = 0 }},
		{"negative retries", func(c *Config) { c.HTTPClient.MaxRetries = -1 }},
		{"no limiter capacity", func(c *Config) { c.Limiter.MaxConcurrent = 0 }},
		{"empty backend", func(c *Config) { c.Backend.BaseURL = "" }},
		{"card template without page verb", func(c *Config) { c.Backend.CardPathTemplate = "/output/cards/card.png" }},
		{"card template with string verb", func(c *Config) { c.Backend.CardPathTemplate = "/output/cards/story_card_%s.png" }},
		{"card template with extra verb", func(c *Config) { c.Backend.CardPathTemplate = "/output/%s/story_card_%d.png" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_CardPathTemplate(t *testing.T) {
	cfg := Default()
	cfg.Backend.CardPathTemplate = "/cards/%d.png"
	assert.NoError(t, cfg.Validate())
}

func TestValidLevel(t *testing.T) {
	for _, l := range Levels {
		assert.True(t, ValidLevel(l), l)
	}
	assert.False(t, ValidLevel("beginner"))
	assert.False(t, ValidLevel(""))
}
