// Package config provides configuration management for greenrank.
package config

import (
	"fmt"
	"time"

	"github.com/ecoloop/greenrank/internal/types"
)

// Secret re-exports types.Secret for config consumers.
type Secret = types.Secret

// NewSecret creates a Secret with the provided value.
func NewSecret(value string) Secret {
	return types.NewSecret(value)
}

// Config contains all configuration for the hybrid data service.
type Config struct {
	Cache    CacheConfig    `json:"cache"`
	Snapshot SnapshotConfig `json:"snapshot"`
	Source   SourceConfig   `json:"source"`
	Merge    MergeConfig    `json:"merge"`
	Throttle ThrottleConfig `json:"throttle"`
	Retry    RetryConfig    `json:"retry"`
	Fallback FallbackConfig `json:"fallback"`
	Metrics  MetricsConfig  `json:"metrics"`
}

// CacheConfig contains configuration for the policy cache store.
type CacheConfig struct {
	MaxEntries    int           `json:"maxEntries"`
	DefaultTTL    time.Duration `json:"defaultTTL"`
	Eviction      string        `json:"eviction"`
	SweepInterval time.Duration `json:"sweepInterval"`
}

// Policy resolves the configured eviction policy name.
func (c CacheConfig) Policy() types.EvictionPolicy {
	p, _ := types.ParseEvictionPolicy(c.Eviction)
	return p
}

// SnapshotConfig contains configuration for the optional Redis snapshot sink.
type SnapshotConfig struct {
	Enabled          bool          `json:"enabled"`
	Address          string        `json:"address"`
	Password         Secret        `json:"password"`
	DB               int           `json:"db"`
	KeyPrefix        string        `json:"keyPrefix"`
	DialTimeout      time.Duration `json:"dialTimeout"`
	ReadTimeout      time.Duration `json:"readTimeout"`
	WriteTimeout     time.Duration `json:"writeTimeout"`
	MaxPendingWrites int           `json:"maxPendingWrites"`
}

// SourceConfig contains configuration for the real data source client.
type SourceConfig struct {
	BaseURL        string        `json:"baseURL"`
	APIKey         Secret        `json:"apiKey"`
	RequestTimeout time.Duration `json:"requestTimeout"`
}

// MergeConfig contains the per-source score multipliers.
type MergeConfig struct {
	RealWeight      float64 `json:"realWeight"`
	SyntheticWeight float64 `json:"syntheticWeight"`
}

// Weights returns the merge weights as a types.SourceWeight.
func (c MergeConfig) Weights() types.SourceWeight {
	return types.SourceWeight{Real: c.RealWeight, Synthetic: c.SyntheticWeight}
}

// ThrottleConfig contains configuration for the shared request throttle.
type ThrottleConfig struct {
	MaxConcurrent int `json:"maxConcurrent"`
	MaxQueue      int `json:"maxQueue"`
}

// RetryConfig contains configuration for the retryBackoff strategy.
type RetryConfig struct {
	BaseDelay   time.Duration `json:"baseDelay"`
	MaxDelay    time.Duration `json:"maxDelay"`
	MaxAttempts int           `json:"maxAttempts"`
}

// StrategyConfig is one step in a fallback chain.
type StrategyConfig struct {
	Kind        types.FallbackKind `json:"kind"`
	Priority    int                `json:"priority"`
	MaxAttempts int                `json:"maxAttempts,omitempty"`
	Timeout     time.Duration      `json:"timeout,omitempty"`
}

// FallbackConfig contains the per-operation recovery chains. Chains are
// read at startup and never mutated afterwards.
type FallbackConfig struct {
	Enabled    bool                        `json:"enabled"`
	MaxReports int                         `json:"maxReports"`
	Chains     map[string][]StrategyConfig `json:"chains"`
}

// MetricsConfig contains configuration for the performance recorder and
// the optional StatsD publisher.
type MetricsConfig struct {
	BufferSize      int           `json:"bufferSize"`
	PublishInterval time.Duration `json:"publishInterval"`
	StatsD          StatsDConfig  `json:"statsd"`
}

// StatsDConfig contains configuration for DataDog StatsD publishing.
type StatsDConfig struct {
	Enabled   bool     `json:"enabled"`
	AgentHost string   `json:"agentHost"`
	Port      int      `json:"port"`
	Prefix    string   `json:"prefix"`
	Tags      []string `json:"tags"`
}

// Validate checks the configuration and fails fast on invalid values.
// Fetch paths never see a bad configuration.
func (c *Config) Validate() error {
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("%w: cache.maxEntries must be positive", types.ErrInvalidConfig)
	}
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("%w: cache.defaultTTL must be positive", types.ErrInvalidConfig)
	}
	if _, ok := types.ParseEvictionPolicy(c.Cache.Eviction); !ok {
		return fmt.Errorf("%w: unknown eviction policy %q", types.ErrInvalidConfig, c.Cache.Eviction)
	}
	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("%w: cache.sweepInterval must be positive", types.ErrInvalidConfig)
	}
	if c.Merge.RealWeight < 0 || c.Merge.RealWeight > 1 {
		return fmt.Errorf("%w: merge.realWeight must be in [0,1]", types.ErrInvalidConfig)
	}
	if c.Merge.SyntheticWeight < 0 || c.Merge.SyntheticWeight > 1 {
		return fmt.Errorf("%w: merge.syntheticWeight must be in [0,1]", types.ErrInvalidConfig)
	}
	if c.Throttle.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: throttle.maxConcurrent must be positive", types.ErrInvalidConfig)
	}
	if c.Throttle.MaxQueue < 0 {
		return fmt.Errorf("%w: throttle.maxQueue must not be negative", types.ErrInvalidConfig)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry.maxAttempts must be positive", types.ErrInvalidConfig)
	}
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("%w: retry.baseDelay must be positive", types.ErrInvalidConfig)
	}
	if c.Source.RequestTimeout <= 0 {
		return fmt.Errorf("%w: source.requestTimeout must be positive", types.ErrInvalidConfig)
	}
	if c.Metrics.BufferSize <= 0 {
		return fmt.Errorf("%w: metrics.bufferSize must be positive", types.ErrInvalidConfig)
	}
	if c.Snapshot.Enabled && c.Snapshot.Address == "" {
		return fmt.Errorf("%w: snapshot.address is required when snapshotting is enabled", types.ErrInvalidConfig)
	}
	for op, chain := range c.Fallback.Chains {
		for _, s := range chain {
			if !types.ValidFallbackKind(s.Kind) {
				return fmt.Errorf("%w: unknown fallback kind %q for operation %q", types.ErrInvalidConfig, s.Kind, op)
			}
		}
	}
	return nil
}
