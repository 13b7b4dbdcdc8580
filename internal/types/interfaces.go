package types

import (
	"context"
	"time"
)

// LeaderboardQuery are the parameters of a leaderboard fetch.
type LeaderboardQuery struct {
	Limit     int
	Timeframe string
	UserID    string
}

// AchievementQuery are the parameters of an achievements fetch.
type AchievementQuery struct {
	UserID string
}

// ChallengeQuery are the parameters of a challenges fetch.
type ChallengeQuery struct {
	FeaturedOnly bool
	UserID       string
}

// RecordSource is the fetch interface both the real backend client and the
// synthetic dataset implement. Naming-convention flexibility lives inside
// the implementations; everything past this boundary sees canonical records.
type RecordSource interface {
	Name() DataSource
	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]MergedRecord, error)
	Achievements(ctx context.Context, q AchievementQuery) ([]MergedRecord, error)
	Challenges(ctx context.Context, q ChallengeQuery) ([]MergedRecord, error)
	UserStats(ctx context.Context, userID string) (*UserStats, error)
}

// SnapshotSink is an optional durable key/value store the cache store
// mirrors writes into. All methods are best-effort from the store's point
// of view; failures are logged, never surfaced to callers.
type SnapshotSink interface {
	Save(ctx context.Context, entry *CacheEntry) error
	Remove(ctx context.Context, key string) error
	RemoveAll(ctx context.Context) error
	Load(ctx context.Context) ([]*CacheEntry, error)
	Close() error
}

// Notifier delivers user-facing failure notices. Delivery itself
// (toasts, banners) belongs to the rendering layer.
type Notifier interface {
	Notify(operation, message string, severity SeverityLevel)
}

// Serializer converts values to and from their cached byte form.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// SeverityLevel grades a failure for notification purposes only; it never
// alters fallback ordering.
type SeverityLevel string

const (
	SeverityLow    SeverityLevel = "low"
	SeverityMedium SeverityLevel = "medium"
	SeverityHigh   SeverityLevel = "high"
)

// UserImpact describes how visible a failure is to the end user.
type UserImpact string

const (
	ImpactMinor    UserImpact = "minor"
	ImpactModerate UserImpact = "moderate"
	ImpactSevere   UserImpact = "severe"
)

// Severity pairs a level with its user impact and the action taken.
type Severity struct {
	Level          SeverityLevel `json:"level"`
	UserImpact     UserImpact    `json:"userImpact"`
	RecoveryAction string        `json:"recoveryAction"`
}

// PerformanceSample is one facade-call timing observation.
type PerformanceSample struct {
	Operation    string        `json:"operation"`
	Duration     time.Duration `json:"duration"`
	CacheHit     bool          `json:"cacheHit"`
	PayloadBytes int           `json:"payloadBytes"`
	Timestamp    time.Time     `json:"timestamp"`
	UserID       string        `json:"userId,omitempty"`
}
