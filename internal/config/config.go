// Package config loads and validates the engine's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/equityrecon/internal/domain"
)

// Config is the complete engine configuration.
type Config struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	Fetch     FetchConfig               `yaml:"fetch"`
	GapFill   GapFillConfig             `yaml:"gapfill"`
	FX        FXConfig                  `yaml:"fx"`
	Quality   domain.QualityTable       `yaml:"quality"`
	HTTP      HTTPConfig                `yaml:"http"`
}

// ProviderConfig configures one adapter. Durations are plain seconds in
// YAML.
type ProviderConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"` // env var holding the credential
	RPS         float64       `yaml:"rps"`
	Burst       int           `yaml:"burst"`
	TimeoutSecs int           `yaml:"timeout_secs"`
	DSNEnv      string        `yaml:"dsn_env"`     // statements adapter only
	WSEndpoint  string        `yaml:"ws_endpoint"` // livequote adapter only
	Circuit     CircuitConfig `yaml:"circuit"`
}

// Timeout returns the HTTP timeout, defaulted.
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutSecs) * time.Second
}

// CircuitConfig configures an adapter's gobreaker settings.
type CircuitConfig struct {
	MaxRequests         uint32 `yaml:"max_requests"`
	IntervalSecs        int    `yaml:"interval_secs"`
	TimeoutSecs         int    `yaml:"timeout_secs"`
	ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
}

// Interval returns the breaker's counting window.
func (c CircuitConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSecs) * time.Second
}

// Timeout returns the breaker's open-state duration.
func (c CircuitConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// FetchConfig bounds the parallel fetch phase.
type FetchConfig struct {
	PerSourceTimeoutSecs int `yaml:"per_source_timeout_secs"`
}

// PerSourceTimeout returns the per-adapter bound, defaulted to 15s.
func (f FetchConfig) PerSourceTimeout() time.Duration {
	if f.PerSourceTimeoutSecs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(f.PerSourceTimeoutSecs) * time.Second
}

// GapFillConfig bounds the web-search rescue step.
type GapFillConfig struct {
	CoverageThreshold float64  `yaml:"coverage_threshold"`
	QueryTimeoutSecs  int      `yaml:"query_timeout_secs"`
	MaxQueries        int      `yaml:"max_queries"`
	PanicSuffixes     []string `yaml:"panic_suffixes"` // markets with poor primary coverage
}

// QueryTimeout returns the per-query bound, defaulted to 8s.
func (g GapFillConfig) QueryTimeout() time.Duration {
	if g.QueryTimeoutSecs <= 0 {
		return 8 * time.Second
	}
	return time.Duration(g.QueryTimeoutSecs) * time.Second
}

// FXConfig selects and bounds the FX rate cache backend.
type FXConfig struct {
	Backend   string `yaml:"backend"` // "memory" or "redis"
	TTLSecs   int    `yaml:"ttl_secs"`
	RedisAddr string `yaml:"redis_addr"`
}

// TTL returns the cache entry lifetime.
func (f FXConfig) TTL() time.Duration {
	return time.Duration(f.TTLSecs) * time.Second
}

// HTTPConfig configures the read-only API server.
type HTTPConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
}

// ReadTimeout returns the server read bound.
func (h HTTPConfig) ReadTimeout() time.Duration {
	return time.Duration(h.ReadTimeoutSecs) * time.Second
}

// WriteTimeout returns the server write bound.
func (h HTTPConfig) WriteTimeout() time.Duration {
	return time.Duration(h.WriteTimeoutSecs) * time.Second
}

// Default returns the shipped configuration.
func Default() *Config {
	return &Config{
		Providers: map[string]ProviderConfig{
			"feed": {
				Enabled:     true,
				BaseURL:     "https://api.example-feed.com/v2",
				APIKeyEnv:   "EQUITYRECON_FEED_KEY",
				RPS:         5,
				Burst:       10,
				TimeoutSecs: 10,
				Circuit:     defaultCircuit(),
			},
			"statements": {
				Enabled:     true,
				DSNEnv:      "EQUITYRECON_STATEMENTS_DSN",
				TimeoutSecs: 10,
			},
			"livequote": {
				Enabled:    true,
				WSEndpoint: "wss://quotes.example-feed.com/v1/stream",
			},
			"aggregator": {
				Enabled:     true,
				BaseURL:     "https://aggregator.example.com/api",
				RPS:         2,
				Burst:       4,
				TimeoutSecs: 10,
				Circuit:     defaultCircuit(),
			},
			"websearch": {
				Enabled:     true,
				BaseURL:     "https://search.example.com",
				RPS:         1,
				Burst:       2,
				TimeoutSecs: 8,
			},
		},
		Fetch: FetchConfig{PerSourceTimeoutSecs: 15},
		GapFill: GapFillConfig{
			CoverageThreshold: 0.70,
			QueryTimeoutSecs:  8,
			MaxQueries:        12,
			PanicSuffixes:     []string{"KL", "JK", "BK", "VN", "KA"},
		},
		FX: FXConfig{
			Backend: "memory",
			TTLSecs: 3600,
		},
		Quality: domain.DefaultQualityTable(),
		HTTP: HTTPConfig{
			Host:             "127.0.0.1",
			Port:             8080,
			ReadTimeoutSecs:  10,
			WriteTimeoutSecs: 10,
		},
	}
}

func defaultCircuit() CircuitConfig {
	return CircuitConfig{
		MaxRequests:         3,
		IntervalSecs:        60,
		TimeoutSecs:         30,
		ConsecutiveFailures: 3,
	}
}

// Load reads configuration from a YAML file, layered over defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate ensures the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Fetch.PerSourceTimeoutSecs < 0 {
		return fmt.Errorf("fetch per_source_timeout_secs cannot be negative, got %d", c.Fetch.PerSourceTimeoutSecs)
	}
	if c.GapFill.CoverageThreshold <= 0 || c.GapFill.CoverageThreshold > 1 {
		return fmt.Errorf("gapfill coverage_threshold must be in (0,1], got %f", c.GapFill.CoverageThreshold)
	}
	switch c.FX.Backend {
	case "memory":
	case "redis":
		if c.FX.RedisAddr == "" {
			return fmt.Errorf("fx redis backend requires redis_addr")
		}
	default:
		return fmt.Errorf("fx backend must be memory or redis, got %q", c.FX.Backend)
	}
	if c.FX.TTLSecs <= 0 {
		return fmt.Errorf("fx ttl_secs must be positive, got %d", c.FX.TTLSecs)
	}
	if len(c.Quality.Tiers) == 0 {
		return fmt.Errorf("quality table has no tiers")
	}
	if c.Quality.Unlabeled <= 0 {
		return fmt.Errorf("quality unlabeled tier must be positive, got %d", c.Quality.Unlabeled)
	}
	for name, p := range c.Providers {
		if !p.Enabled {
			continue
		}
		if p.RPS < 0 {
			return fmt.Errorf("provider %s: rps cannot be negative", name)
		}
		if p.TimeoutSecs < 0 {
			return fmt.Errorf("provider %s: timeout_secs cannot be negative", name)
		}
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port out of range: %d", c.HTTP.Port)
	}
	return nil
}
