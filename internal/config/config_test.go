package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equityrecon/internal/domain"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 15*time.Second, cfg.Fetch.PerSourceTimeout())
	assert.Equal(t, 0.70, cfg.GapFill.CoverageThreshold)
	assert.Equal(t, time.Hour, cfg.FX.TTL())
	assert.Equal(t, domain.Tier(1), cfg.Quality.Lookup(domain.SourceWebSearch))
	assert.Contains(t, cfg.GapFill.PanicSuffixes, "KL")
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gapfill:
  coverage_threshold: 0.5
fx:
  backend: redis
  redis_addr: 127.0.0.1:6379
  ttl_secs: 120
providers:
  feed:
    enabled: true
    base_url: https://feed.internal
    api_key_env: FEED_KEY
    timeout_secs: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.GapFill.CoverageThreshold)
	assert.Equal(t, "redis", cfg.FX.Backend)
	assert.Equal(t, 2*time.Minute, cfg.FX.TTL())
	assert.Equal(t, "https://feed.internal", cfg.Providers["feed"].BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Providers["feed"].Timeout())

	// Untouched sections keep their defaults.
	assert.Equal(t, 15*time.Second, cfg.Fetch.PerSourceTimeout())
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero coverage threshold", func(c *Config) { c.GapFill.CoverageThreshold = 0 }},
		{"threshold above one", func(c *Config) { c.GapFill.CoverageThreshold = 1.5 }},
		{"unknown fx backend", func(c *Config) { c.FX.Backend = "dynamodb" }},
		{"redis without addr", func(c *Config) { c.FX.Backend = "redis"; c.FX.RedisAddr = "" }},
		{"non-positive fx ttl", func(c *Config) { c.FX.TTLSecs = 0 }},
		{"empty quality table", func(c *Config) { c.Quality.Tiers = nil }},
		{"zero unlabeled tier", func(c *Config) { c.Quality.Unlabeled = 0 }},
		{"negative provider rps", func(c *Config) {
			p := c.Providers["feed"]
			p.RPS = -1
			c.Providers["feed"] = p
		}},
		{"port out of range", func(c *Config) { c.HTTP.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
