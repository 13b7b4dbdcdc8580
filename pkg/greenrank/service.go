package greenrank

import (
	"context"
)

// Service is the only interface the rendering layer consumes. Results are
// never partial or raw: every response either carries usable data with its
// provenance, or an explicit failure distinguishing "no data available"
// from a genuinely empty result set.
type Service interface {
	GetLeaderboard(ctx context.Context, q LeaderboardQuery) (*LeaderboardResult, error)
	GetAchievements(ctx context.Context, q AchievementQuery) (*AchievementResult, error)
	GetChallenges(ctx context.Context, q ChallengeQuery) (*ChallengeResult, error)
	GetUserStats(ctx context.Context, userID string) (*UserStatsResult, error)

	ClearCache()
	UpdateConfig(patch Patch) error
	GetConfig() Config

	Reports() []*ErrorReport
	MetricsAverages(operation string) Aggregates
	MetricsSamples(operation string) []PerformanceSample
	CacheStats() CacheStats
	ThrottleStats() ThrottleStats

	Close() error
}
