package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ecoloop/greenrank/internal/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
	if cfg.Cache.MaxEntries != 500 {
		t.Errorf("Cache.MaxEntries = %d, want 500", cfg.Cache.MaxEntries)
	}
	if cfg.Cache.DefaultTTL != 5*time.Minute {
		t.Errorf("Cache.DefaultTTL = %v, want 5m", cfg.Cache.DefaultTTL)
	}
	if cfg.Merge.RealWeight != 1.0 || cfg.Merge.SyntheticWeight != 0.7 {
		t.Errorf("Merge weights = %v/%v, want 1.0/0.7", cfg.Merge.RealWeight, cfg.Merge.SyntheticWeight)
	}
	if !cfg.Fallback.Enabled {
		t.Error("Fallback.Enabled = false, want true")
	}
	for _, op := range []string{OpLeaderboard, OpAchievements, OpChallenges, OpUserStats} {
		if len(cfg.Fallback.Chains[op]) == 0 {
			t.Errorf("no fallback chain for %q", op)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cache entries", func(c *Config) { c.Cache.MaxEntries = 0 }},
		{"negative TTL", func(c *Config) { c.Cache.DefaultTTL = -time.Second }},
		{"unknown eviction policy", func(c *Config) { c.Cache.Eviction = "random" }},
		{"zero sweep interval", func(c *Config) { c.Cache.SweepInterval = 0 }},
		{"real weight above one", func(c *Config) { c.Merge.RealWeight = 1.5 }},
		{"negative synthetic weight", func(c *Config) { c.Merge.SyntheticWeight = -0.1 }},
		{"zero max concurrent", func(c *Config) { c.Throttle.MaxConcurrent = 0 }},
		{"negative queue", func(c *Config) { c.Throttle.MaxQueue = -1 }},
		{"zero retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"zero request timeout", func(c *Config) { c.Source.RequestTimeout = 0 }},
		{"zero metrics buffer", func(c *Config) { c.Metrics.BufferSize = 0 }},
		{"snapshot enabled without address", func(c *Config) {
			c.Snapshot.Enabled = true
			c.Snapshot.Address = ""
		}},
		{"unknown fallback kind", func(c *Config) {
			c.Fallback.Chains = map[string][]StrategyConfig{
				OpLeaderboard: {{Kind: "teleport", Priority: 1}},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !errors.Is(err, types.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestPatchApply(t *testing.T) {
	t.Run("applies set fields only", func(t *testing.T) {
		cfg := DefaultConfig()
		ttl := 30 * time.Second
		w := 0.5
		next, err := Patch{CacheTTL: &ttl, SyntheticWeight: &w}.Apply(cfg)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if next.Cache.DefaultTTL != ttl {
			t.Errorf("Cache.DefaultTTL = %v, want %v", next.Cache.DefaultTTL, ttl)
		}
		if next.Merge.SyntheticWeight != w {
			t.Errorf("Merge.SyntheticWeight = %v, want %v", next.Merge.SyntheticWeight, w)
		}
		// Untouched fields keep their values.
		if next.Merge.RealWeight != cfg.Merge.RealWeight {
			t.Errorf("Merge.RealWeight = %v, want %v", next.Merge.RealWeight, cfg.Merge.RealWeight)
		}
	})

	t.Run("invalid patch leaves input untouched", func(t *testing.T) {
		cfg := DefaultConfig()
		bad := 2.0
		_, err := Patch{RealWeight: &bad}.Apply(cfg)
		if err == nil {
			t.Fatal("Apply() error = nil, want error")
		}
		if !errors.Is(err, types.ErrInvalidConfig) {
			t.Errorf("Apply() error = %v, want ErrInvalidConfig", err)
		}
		if cfg.Merge.RealWeight != 1.0 {
			t.Errorf("input mutated: RealWeight = %v, want 1.0", cfg.Merge.RealWeight)
		}
	})

	t.Run("disables fallback", func(t *testing.T) {
		off := false
		next, err := Patch{FallbackEnabled: &off}.Apply(DefaultConfig())
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if next.Fallback.Enabled {
			t.Error("Fallback.Enabled = true, want false")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Cache.MaxEntries != 500 {
			t.Errorf("Cache.MaxEntries = %d, want default 500", cfg.Cache.MaxEntries)
		}
	})

	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Throttle.MaxConcurrent != 5 {
			t.Errorf("Throttle.MaxConcurrent = %d, want 5", cfg.Throttle.MaxConcurrent)
		}
	})

	t.Run("file overrides defaults and keeps chains", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		content := `{"cache":{"maxEntries":64,"defaultTTL":60000000000,"eviction":"fifo","sweepInterval":1000000000}}`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Cache.MaxEntries != 64 {
			t.Errorf("Cache.MaxEntries = %d, want 64", cfg.Cache.MaxEntries)
		}
		if cfg.Cache.Eviction != "fifo" {
			t.Errorf("Cache.Eviction = %q, want fifo", cfg.Cache.Eviction)
		}
		if len(cfg.Fallback.Chains) == 0 {
			t.Error("Fallback.Chains empty, want defaults filled in")
		}
	})

	t.Run("invalid json fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Load() error = nil, want parse error")
		}
	})
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("GREENRANK_CACHE_MAX_ENTRIES", "99")
	t.Setenv("GREENRANK_CACHE_DEFAULT_TTL", "90s")
	t.Setenv("GREENRANK_MERGE_SYNTHETIC_WEIGHT", "0.3")
	t.Setenv("GREENRANK_FALLBACK_ENABLED", "false")
	t.Setenv("GREENRANK_SOURCE_API_KEY", "env-key")

	cfg, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if cfg.Cache.MaxEntries != 99 {
		t.Errorf("Cache.MaxEntries = %d, want 99", cfg.Cache.MaxEntries)
	}
	if cfg.Cache.DefaultTTL != 90*time.Second {
		t.Errorf("Cache.DefaultTTL = %v, want 90s", cfg.Cache.DefaultTTL)
	}
	if cfg.Merge.SyntheticWeight != 0.3 {
		t.Errorf("Merge.SyntheticWeight = %v, want 0.3", cfg.Merge.SyntheticWeight)
	}
	if cfg.Fallback.Enabled {
		t.Error("Fallback.Enabled = true, want false")
	}
	if cfg.Source.APIKey.Value() != "env-key" {
		t.Errorf("Source.APIKey = %q, want env-key", cfg.Source.APIKey.Value())
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"5s", 5 * time.Second},
		{"2m", 2 * time.Minute},
		{"30", 30 * time.Second}, // bare integers are seconds
		{"garbage", time.Minute}, // falls back to default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDuration(tt.input, time.Minute); got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
