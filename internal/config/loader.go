package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Load loads configuration from a JSON file. A missing file is not an
// error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Fallback.Chains == nil {
		cfg.Fallback.Chains = DefaultChains()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a JSON file and applies environment
// overrides on top.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//nolint:gocyclo // Environment variable parsing requires many conditional checks
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GREENRANK_CACHE_MAX_ENTRIES"); v != "" {
		cfg.Cache.MaxEntries = parseInt(v, cfg.Cache.MaxEntries)
	}
	if v := os.Getenv("GREENRANK_CACHE_DEFAULT_TTL"); v != "" {
		cfg.Cache.DefaultTTL = parseDuration(v, cfg.Cache.DefaultTTL)
	}
	if v := os.Getenv("GREENRANK_CACHE_EVICTION"); v != "" {
		cfg.Cache.Eviction = v
	}
	if v := os.Getenv("GREENRANK_CACHE_SWEEP_INTERVAL"); v != "" {
		cfg.Cache.SweepInterval = parseDuration(v, cfg.Cache.SweepInterval)
	}

	if v := os.Getenv("GREENRANK_SNAPSHOT_ENABLED"); v != "" {
		cfg.Snapshot.Enabled = parseBool(v)
	}
	if v := os.Getenv("GREENRANK_SNAPSHOT_ADDRESS"); v != "" {
		cfg.Snapshot.Address = v
	}
	if v := os.Getenv("GREENRANK_SNAPSHOT_PASSWORD"); v != "" {
		cfg.Snapshot.Password = NewSecret(v)
	}
	if v := os.Getenv("GREENRANK_SNAPSHOT_KEY_PREFIX"); v != "" {
		cfg.Snapshot.KeyPrefix = v
	}
	if v := os.Getenv("GREENRANK_SNAPSHOT_DB"); v != "" {
		cfg.Snapshot.DB = parseInt(v, cfg.Snapshot.DB)
	}

	if v := os.Getenv("GREENRANK_SOURCE_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("GREENRANK_SOURCE_API_KEY"); v != "" {
		cfg.Source.APIKey = NewSecret(v)
	}
	if v := os.Getenv("GREENRANK_SOURCE_REQUEST_TIMEOUT"); v != "" {
		cfg.Source.RequestTimeout = parseDuration(v, cfg.Source.RequestTimeout)
	}

	if v := os.Getenv("GREENRANK_MERGE_REAL_WEIGHT"); v != "" {
		cfg.Merge.RealWeight = parseFloat(v, cfg.Merge.RealWeight)
	}
	if v := os.Getenv("GREENRANK_MERGE_SYNTHETIC_WEIGHT"); v != "" {
		cfg.Merge.SyntheticWeight = parseFloat(v, cfg.Merge.SyntheticWeight)
	}

	if v := os.Getenv("GREENRANK_THROTTLE_MAX_CONCURRENT"); v != "" {
		cfg.Throttle.MaxConcurrent = parseInt(v, cfg.Throttle.MaxConcurrent)
	}
	if v := os.Getenv("GREENRANK_THROTTLE_MAX_QUEUE"); v != "" {
		cfg.Throttle.MaxQueue = parseInt(v, cfg.Throttle.MaxQueue)
	}

	if v := os.Getenv("GREENRANK_RETRY_BASE_DELAY"); v != "" {
		cfg.Retry.BaseDelay = parseDuration(v, cfg.Retry.BaseDelay)
	}
	if v := os.Getenv("GREENRANK_RETRY_MAX_ATTEMPTS"); v != "" {
		cfg.Retry.MaxAttempts = parseInt(v, cfg.Retry.MaxAttempts)
	}

	if v := os.Getenv("GREENRANK_FALLBACK_ENABLED"); v != "" {
		cfg.Fallback.Enabled = parseBool(v)
	}
	if v := os.Getenv("GREENRANK_METRICS_BUFFER_SIZE"); v != "" {
		cfg.Metrics.BufferSize = parseInt(v, cfg.Metrics.BufferSize)
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.StatsD.AgentHost = v
		cfg.Metrics.StatsD.Enabled = true
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.StatsD.Port = parseInt(v, cfg.Metrics.StatsD.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.StatsD.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.StatsD.Tags = append(cfg.Metrics.StatsD.Tags, "env:"+v)
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

func parseFloat(s string, defaultVal float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}
