package greenrank

import (
	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/metrics"
	"github.com/ecoloop/greenrank/internal/resilience"
	"github.com/ecoloop/greenrank/internal/types"
)

type (
	// DataSource identifies where a record originated.
	DataSource = types.DataSource
	// DataQuality rates how much of a result came from the real source.
	DataQuality = types.DataQuality
	// MergedRecord is the canonical record shape served by every list
	// operation.
	MergedRecord = types.MergedRecord
	// UserStats is the aggregate statistics shape for one user.
	UserStats = types.UserStats
	// LeaderboardQuery parametrizes GetLeaderboard.
	LeaderboardQuery = types.LeaderboardQuery
	// AchievementQuery parametrizes GetAchievements.
	AchievementQuery = types.AchievementQuery
	// ChallengeQuery parametrizes GetChallenges.
	ChallengeQuery = types.ChallengeQuery
	// LeaderboardResult is GetLeaderboard's response.
	LeaderboardResult = types.LeaderboardResult
	// AchievementResult is GetAchievements's response.
	AchievementResult = types.AchievementResult
	// ChallengeResult is GetChallenges's response.
	ChallengeResult = types.ChallengeResult
	// UserStatsResult is GetUserStats's response.
	UserStatsResult = types.UserStatsResult
	// ResultStats describes the provenance of one response.
	ResultStats = types.ResultStats
	// PerformanceSample is one recorded facade-call observation.
	PerformanceSample = types.PerformanceSample
	// CacheStats contains cache store counters.
	CacheStats = types.CacheStats
	// RecordSource is the fetch interface both sources implement.
	RecordSource = types.RecordSource
	// SnapshotSink is the optional durable store for cache snapshots.
	SnapshotSink = types.SnapshotSink
	// Notifier delivers user-facing failure notices.
	Notifier = types.Notifier
	// Serializer converts values to and from their cached byte form.
	Serializer = types.Serializer
	// FallbackKind names a recovery strategy.
	FallbackKind = types.FallbackKind
	// SeverityLevel grades a failure for notification purposes.
	SeverityLevel = types.SeverityLevel

	// Config is the full service configuration.
	Config = config.Config
	// Patch is a partial configuration update for UpdateConfig.
	Patch = config.Patch

	// ErrorReport records one failure and its resolution.
	ErrorReport = resilience.ErrorReport
	// ThrottleStats contains request throttle counters.
	ThrottleStats = resilience.ThrottleStats
	// Aggregates summarizes recorded samples for one operation.
	Aggregates = metrics.Aggregates
	// Publisher receives metric aggregates on an interval.
	Publisher = metrics.Publisher
)

const (
	SourceReal      = types.SourceReal
	SourceSynthetic = types.SourceSynthetic
	SourceMerged    = types.SourceMerged

	QualityExcellent = types.QualityExcellent
	QualityGood      = types.QualityGood
	QualityFair      = types.QualityFair
	QualityPoor      = types.QualityPoor

	FallbackCachedData    = types.FallbackCachedData
	FallbackSyntheticData = types.FallbackSyntheticData
	FallbackDefaultState  = types.FallbackDefaultState
	FallbackRetryBackoff  = types.FallbackRetryBackoff
	FallbackNotifyUser    = types.FallbackNotifyUser
)

// Operation names accepted by MetricsAverages, MetricsSamples, and used as
// fallback-chain keys.
const (
	OpLeaderboard  = config.OpLeaderboard
	OpAchievements = config.OpAchievements
	OpChallenges   = config.OpChallenges
	OpUserStats    = config.OpUserStats
)
