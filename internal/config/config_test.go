package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with no file or env failed: %v", err)
	}

	if cfg.ListenPort != 8080 {
		t.Errorf("ListenPort = %d, want 8080", cfg.ListenPort)
	}
	if cfg.TokensPerSecond != 10 {
		t.Errorf("TokensPerSecond = %v, want 10", cfg.TokensPerSecond)
	}
	if cfg.BurstCapacity != 20 {
		t.Errorf("BurstCapacity = %d, want 20", cfg.BurstCapacity)
	}
	if !cfg.BreakerEnabled {
		t.Error("BreakerEnabled should default to true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TOKENS_PER_SECOND", "2.5")
	t.Setenv("BURST_CAPACITY", "3")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("TIMEOUT_RATE", "0.25")
	t.Setenv("PROVIDER_ID", "mockpay-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TokensPerSecond != 2.5 {
		t.Errorf("TokensPerSecond = %v, want 2.5", cfg.TokensPerSecond)
	}
	if cfg.BurstCapacity != 3 {
		t.Errorf("BurstCapacity = %d, want 3", cfg.BurstCapacity)
	}
	if cfg.BreakerEnabled {
		t.Error("BreakerEnabled should be overridden to false")
	}
	if cfg.TimeoutRate != 0.25 {
		t.Errorf("TimeoutRate = %v, want 0.25", cfg.TimeoutRate)
	}
	if cfg.ProviderID != "mockpay-test" {
		t.Errorf("ProviderID = %q, want mockpay-test", cfg.ProviderID)
	}
}

func TestEnvParseErrors(t *testing.T) {
	t.Setenv("TOKENS_PER_SECOND", "fast")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for unparsable TOKENS_PER_SECOND")
	}
	if !strings.Contains(err.Error(), "TOKENS_PER_SECOND") {
		t.Errorf("error %q should name the offending variable", err)
	}
}

func TestFileLoadAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paysim.yaml")
	data := []byte("tokens_per_second: 50\nburst_capacity: 7\nprovider_id: from-file\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BURST_CAPACITY", "9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TokensPerSecond != 50 {
		t.Errorf("TokensPerSecond = %v, want 50 from file", cfg.TokensPerSecond)
	}
	if cfg.BurstCapacity != 9 {
		t.Errorf("BurstCapacity = %d, want 9 (env wins over file)", cfg.BurstCapacity)
	}
	if cfg.ProviderID != "from-file" {
		t.Errorf("ProviderID = %q, want from-file", cfg.ProviderID)
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tokens per second", func(c *Config) { c.TokensPerSecond = 0 }},
		{"negative tokens per second", func(c *Config) { c.TokensPerSecond = -1 }},
		{"zero burst", func(c *Config) { c.BurstCapacity = 0 }},
		{"negative min latency", func(c *Config) { c.MinLatencyMs = -5 }},
		{"max below min latency", func(c *Config) { c.MinLatencyMs = 100; c.MaxLatencyMs = 50 }},
		{"negative rate", func(c *Config) { c.TimeoutRate = -0.1 }},
		{"rate above one", func(c *Config) { c.TransientFailureRate = 1.5 }},
		{"rates sum above one", func(c *Config) {
			c.TransientFailureRate = 0.5
			c.PermanentFailureRate = 0.4
			c.TimeoutRate = 0.2
		}},
		{"negative timeout delay", func(c *Config) { c.TimeoutDelayMs = -1 }},
		{"zero breaker threshold", func(c *Config) { c.BreakerFailureThreshold = 0 }},
		{"negative open duration", func(c *Config) { c.BreakerOpenDurationMs = -1 }},
		{"bad port", func(c *Config) { c.ListenPort = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateBoundaryValues(t *testing.T) {
	cfg := Default()
	cfg.TransientFailureRate = 0.4
	cfg.PermanentFailureRate = 0.3
	cfg.TimeoutRate = 0.3 // sum exactly 1 is allowed
	cfg.MinLatencyMs = 0
	cfg.MaxLatencyMs = 0
	cfg.BreakerOpenDurationMs = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("boundary config should validate, got %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	cfg.TimeoutDelayMs = 1500
	cfg.BreakerOpenDurationMs = 250

	if got := cfg.TimeoutDelay().Milliseconds(); got != 1500 {
		t.Errorf("TimeoutDelay = %dms, want 1500", got)
	}
	if got := cfg.BreakerOpenDuration().Milliseconds(); got != 250 {
		t.Errorf("BreakerOpenDuration = %dms, want 250", got)
	}
	if got := cfg.MinLatency().Milliseconds(); got != 50 {
		t.Errorf("MinLatency = %dms, want 50", got)
	}
}
