// Package config resolves the simulator's effective configuration once at
// startup: built-in defaults, then an optional YAML file, then environment
// variables. The resulting Config is immutable for the process lifetime;
// there is no hot reload.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds every tunable of the simulation engine. All failure rates are
// probabilities in [0,1] interpreted as disjoint bands of a single draw, not
// independent trials.
type Config struct {
	ListenPort int    `yaml:"listen_port" json:"port"`
	ProviderID string `yaml:"provider_id" json:"providerId"`

	TokensPerSecond float64 `yaml:"tokens_per_second" json:"tokensPerSecond"`
	BurstCapacity   int     `yaml:"burst_capacity" json:"burstCapacity"`

	MinLatencyMs int `yaml:"min_latency_ms" json:"minLatencyMs"`
	MaxLatencyMs int `yaml:"max_latency_ms" json:"maxLatencyMs"`

	TransientFailureRate float64 `yaml:"transient_failure_rate" json:"transientFailureRate"`
	PermanentFailureRate float64 `yaml:"permanent_failure_rate" json:"permanentFailureRate"`
	TimeoutRate          float64 `yaml:"timeout_rate" json:"timeoutRate"`
	TimeoutDelayMs       int     `yaml:"timeout_delay_ms" json:"timeoutDelayMs"`

	BreakerEnabled          bool `yaml:"breaker_enabled" json:"breakerEnabled"`
	BreakerFailureThreshold int  `yaml:"breaker_failure_threshold" json:"breakerFailureThreshold"`
	BreakerOpenDurationMs   int  `yaml:"breaker_open_duration_ms" json:"breakerOpenDurationMs"`

	Logging LoggingConfig `yaml:"logging" json:"-"`
}

// LoggingConfig defines log output settings (rotation powered by lumberjack).
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"maxSizeMb,omitempty"`
	MaxBackups int    `yaml:"max_backups" json:"maxBackups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days" json:"maxAgeDays,omitempty"`
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		ListenPort:              8080,
		ProviderID:              "mockpay-1",
		TokensPerSecond:         10,
		BurstCapacity:           20,
		MinLatencyMs:            50,
		MaxLatencyMs:            200,
		TransientFailureRate:    0.1,
		PermanentFailureRate:    0.05,
		TimeoutRate:             0.05,
		TimeoutDelayMs:          5000,
		BreakerEnabled:          true,
		BreakerFailureThreshold: 5,
		BreakerOpenDurationMs:   10000,
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the effective configuration. path may be empty, in which case
// only defaults and environment variables apply. Environment variables always
// win over file values. The result is validated before being returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg. Unset variables leave the
// current value untouched; unparsable values are a startup error.
func applyEnv(cfg *Config) error {
	var errs []error

	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	setFloat := func(name string, dst *float64) {
		if v := os.Getenv(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = f
		}
	}
	setBool := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	setInt("PORT", &cfg.ListenPort)
	setString("PROVIDER_ID", &cfg.ProviderID)
	setFloat("TOKENS_PER_SECOND", &cfg.TokensPerSecond)
	setInt("BURST_CAPACITY", &cfg.BurstCapacity)
	setInt("MIN_LATENCY_MS", &cfg.MinLatencyMs)
	setInt("MAX_LATENCY_MS", &cfg.MaxLatencyMs)
	setFloat("TRANSIENT_FAILURE_RATE", &cfg.TransientFailureRate)
	setFloat("PERMANENT_FAILURE_RATE", &cfg.PermanentFailureRate)
	setFloat("TIMEOUT_RATE", &cfg.TimeoutRate)
	setInt("TIMEOUT_DELAY_MS", &cfg.TimeoutDelayMs)
	setBool("BREAKER_ENABLED", &cfg.BreakerEnabled)
	setInt("BREAKER_FAILURE_THRESHOLD", &cfg.BreakerFailureThreshold)
	setInt("BREAKER_OPEN_DURATION_MS", &cfg.BreakerOpenDurationMs)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("LOG_FILE", &cfg.Logging.File)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment configuration: %v", errs)
	}
	return nil
}

// Validate rejects configurations the engine cannot honor. It runs once at
// startup so that bad values never surface as per-request errors.
func (c *Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen_port must be in (0, 65535], got %d", c.ListenPort)
	}
	if c.TokensPerSecond <= 0 || math.IsNaN(c.TokensPerSecond) || math.IsInf(c.TokensPerSecond, 0) {
		return fmt.Errorf("tokens_per_second must be a positive number, got %v", c.TokensPerSecond)
	}
	if c.BurstCapacity < 1 {
		return fmt.Errorf("burst_capacity must be at least 1, got %d", c.BurstCapacity)
	}
	if c.MinLatencyMs < 0 {
		return fmt.Errorf("min_latency_ms must not be negative, got %d", c.MinLatencyMs)
	}
	if c.MaxLatencyMs < c.MinLatencyMs {
		return fmt.Errorf("max_latency_ms (%d) must not be below min_latency_ms (%d)", c.MaxLatencyMs, c.MinLatencyMs)
	}
	for _, r := range []struct {
		name string
		val  float64
	}{
		{"transient_failure_rate", c.TransientFailureRate},
		{"permanent_failure_rate", c.PermanentFailureRate},
		{"timeout_rate", c.TimeoutRate},
	} {
		if r.val < 0 || r.val > 1 || math.IsNaN(r.val) {
			return fmt.Errorf("%s must be in [0, 1], got %v", r.name, r.val)
		}
	}
	if sum := c.TransientFailureRate + c.PermanentFailureRate + c.TimeoutRate; sum > 1 {
		return fmt.Errorf("failure rates sum to %v, must not exceed 1", sum)
	}
	if c.TimeoutDelayMs < 0 {
		return fmt.Errorf("timeout_delay_ms must not be negative, got %d", c.TimeoutDelayMs)
	}
	if c.BreakerFailureThreshold < 1 {
		return fmt.Errorf("breaker_failure_threshold must be at least 1, got %d", c.BreakerFailureThreshold)
	}
	if c.BreakerOpenDurationMs < 0 {
		return fmt.Errorf("breaker_open_duration_ms must not be negative, got %d", c.BreakerOpenDurationMs)
	}
	return nil
}

// MinLatency returns the lower latency bound as a duration.
func (c *Config) MinLatency() time.Duration {
	return time.Duration(c.MinLatencyMs) * time.Millisecond
}

// MaxLatency returns the upper latency bound as a duration.
func (c *Config) MaxLatency() time.Duration {
	return time.Duration(c.MaxLatencyMs) * time.Millisecond
}

// TimeoutDelay returns how long a simulated timeout stalls before responding.
func (c *Config) TimeoutDelay() time.Duration {
	return time.Duration(c.TimeoutDelayMs) * time.Millisecond
}

// BreakerOpenDuration returns how long the breaker stays open before probing.
func (c *Config) BreakerOpenDuration() time.Duration {
	return time.Duration(c.BreakerOpenDurationMs) * time.Millisecond
}
