package config

import (
	"time"

	"github.com/ecoloop/greenrank/internal/types"
)

// Operation names used as fallback-chain and metrics keys.
const (
	OpLeaderboard  = "leaderboard"
	OpAchievements = "achievements"
	OpChallenges   = "challenges"
	OpUserStats    = "user_stats"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			MaxEntries:    500,
			DefaultTTL:    5 * time.Minute,
			Eviction:      "lru",
			SweepInterval: time.Minute,
		},
		Snapshot: SnapshotConfig{
			Enabled:          false,
			Address:          "localhost:6379",
			KeyPrefix:        "greenrank:cache:",
			DialTimeout:      5 * time.Second,
			ReadTimeout:      3 * time.Second,
			WriteTimeout:     3 * time.Second,
			MaxPendingWrites: 500,
		},
		Source: SourceConfig{
			BaseURL:        "http://localhost:8000/api/v1",
			RequestTimeout: 10 * time.Second,
		},
		Merge: MergeConfig{
			RealWeight:      1.0,
			SyntheticWeight: 0.7,
		},
		Throttle: ThrottleConfig{
			MaxConcurrent: 5,
			MaxQueue:      64,
		},
		Retry: RetryConfig{
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			MaxAttempts: 3,
		},
		Fallback: FallbackConfig{
			Enabled:    true,
			MaxReports: 100,
			Chains:     DefaultChains(),
		},
		Metrics: MetricsConfig{
			BufferSize:      1000,
			PublishInterval: 30 * time.Second,
			StatsD: StatsDConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "greenrank",
				Tags:      []string{},
			},
		},
	}
}

// DefaultChains returns the per-operation fallback chains used when none
// are configured. Cached data is always preferred over synthetic data,
// and every chain ends in a strategy that cannot fail.
func DefaultChains() map[string][]StrategyConfig {
	listChain := []StrategyConfig{
		{Kind: types.FallbackCachedData, Priority: 1},
		{Kind: types.FallbackRetryBackoff, Priority: 2, MaxAttempts: 2},
		{Kind: types.FallbackSyntheticData, Priority: 3},
		{Kind: types.FallbackDefaultState, Priority: 4},
	}
	return map[string][]StrategyConfig{
		OpLeaderboard:  listChain,
		OpAchievements: listChain,
		OpChallenges:   listChain,
		OpUserStats: {
			{Kind: types.FallbackCachedData, Priority: 1},
			{Kind: types.FallbackSyntheticData, Priority: 2},
			{Kind: types.FallbackNotifyUser, Priority: 3},
			{Kind: types.FallbackDefaultState, Priority: 4},
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests:
// tiny cache, fast sweep, no snapshotting, no publishing.
func ForTesting() *Config {
	cfg := DefaultConfig()
	cfg.Cache.MaxEntries = 16
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Cache.SweepInterval = 50 * time.Millisecond
	cfg.Snapshot.Enabled = false
	cfg.Throttle.MaxConcurrent = 2
	cfg.Throttle.MaxQueue = 16
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxAttempts = 2
	cfg.Source.RequestTimeout = time.Second
	cfg.Metrics.BufferSize = 64
	cfg.Metrics.StatsD.Enabled = false
	return cfg
}
