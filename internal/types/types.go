// Package types provides shared types for the greenrank data access layer.
// This package breaks import cycles between pkg/greenrank and the internal
// cache, merge, source, and resilience packages.
package types

import "time"

// DataSource identifies where a record originated.
type DataSource string

const (
	// SourceReal marks records fetched from the authoritative backend.
	SourceReal DataSource = "real"
	// SourceSynthetic marks records produced by the canned dataset.
	SourceSynthetic DataSource = "synthetic"
	// SourceMerged marks records whose identity appeared in both sources;
	// the real record's fields win but the tag records the overlap.
	SourceMerged DataSource = "merged"
)

// DataQuality is a heuristic rating of how much of a merged result
// originated from the real source.
type DataQuality string

const (
	QualityExcellent DataQuality = "excellent"
	QualityGood      DataQuality = "good"
	QualityFair      DataQuality = "fair"
	QualityPoor      DataQuality = "poor"
)

// EvictionPolicy selects which entry the cache store removes when full.
type EvictionPolicy int

const (
	EvictLRU EvictionPolicy = iota + 1
	EvictFIFO
	EvictTTL
)

func (p EvictionPolicy) String() string {
	switch p {
	case EvictLRU:
		return "lru"
	case EvictFIFO:
		return "fifo"
	case EvictTTL:
		return "ttl"
	default:
		return "unknown"
	}
}

// ParseEvictionPolicy parses a policy name as it appears in configuration.
func ParseEvictionPolicy(s string) (EvictionPolicy, bool) {
	switch s {
	case "lru", "":
		return EvictLRU, true
	case "fifo":
		return EvictFIFO, true
	case "ttl", "ttl-sweep":
		return EvictTTL, true
	default:
		return 0, false
	}
}

// CacheEntry is a stored value plus the metadata eviction policies need.
// Owned exclusively by the cache store; AccessCount and LastAccessedAt are
// updated on every read.
type CacheEntry struct {
	Key            string        `json:"key"`
	Value          []byte        `json:"value"`
	CreatedAt      time.Time     `json:"createdAt"`
	TTL            time.Duration `json:"ttl"`
	AccessCount    int64         `json:"accessCount"`
	LastAccessedAt time.Time     `json:"lastAccessedAt"`
	SizeBytes      int           `json:"sizeBytes"`
}

// ExpiresAt returns the instant after which the entry must be treated as absent.
func (e *CacheEntry) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL)
}

// IsExpired reports whether the entry is past its TTL at the given time.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.ExpiresAt())
}

// MergedRecord is the one canonical record shape produced by the source
// adapters and consumed by the hybrid merger. Leaderboard entries,
// achievements, and challenges all normalize into it. Immutable after
// creation.
type MergedRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Score       float64    `json:"score"`
	Rank        int        `json:"rank,omitempty"`
	Points      int        `json:"points"`
	ItemsSorted int        `json:"itemsSorted,omitempty"`
	CO2SavedKg  float64    `json:"co2SavedKg,omitempty"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Unlocked    bool       `json:"unlocked,omitempty"`
	Progress    float64    `json:"progress,omitempty"`
	Featured    bool       `json:"featured,omitempty"`
	DataSource  DataSource `json:"dataSource"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// UserStats is the single-record shape served by the user-stats operation.
type UserStats struct {
	UserID           string    `json:"userId"`
	TotalPoints      int       `json:"totalPoints"`
	ItemsSorted      int       `json:"itemsSorted"`
	CO2SavedKg       float64   `json:"co2SavedKg"`
	Rank             int       `json:"rank"`
	AchievementCount int       `json:"achievementCount"`
	LastActive       time.Time `json:"lastActive,omitempty"`
}

// SourceWeight holds the per-source score multipliers applied before ranking.
// Values are clamped to [0, 1] by config validation.
type SourceWeight struct {
	Real      float64 `json:"real"`
	Synthetic float64 `json:"synthetic"`
}

// For returns the multiplier for a source. Merged records carry real data,
// so they weigh as real.
func (w SourceWeight) For(s DataSource) float64 {
	switch s {
	case SourceSynthetic:
		return w.Synthetic
	default:
		return w.Real
	}
}

// FallbackKind enumerates the recovery strategies the fallback engine knows.
type FallbackKind string

const (
	FallbackCachedData    FallbackKind = "cachedData"
	FallbackSyntheticData FallbackKind = "syntheticData"
	FallbackDefaultState  FallbackKind = "defaultState"
	FallbackRetryBackoff  FallbackKind = "retryBackoff"
	FallbackNotifyUser    FallbackKind = "notifyUser"
)

// ValidFallbackKind reports whether s names a known strategy.
func ValidFallbackKind(s FallbackKind) bool {
	switch s {
	case FallbackCachedData, FallbackSyntheticData, FallbackDefaultState,
		FallbackRetryBackoff, FallbackNotifyUser:
		return true
	default:
		return false
	}
}

// CacheStats contains counters for the cache store.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Deletes   int64
	Evictions int64
	Expired   int64
}
