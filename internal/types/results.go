package types

import "time"

// ResultStats accompanies every facade result and tells the rendering layer
// where the data came from and how it was obtained. Unavailable=true with
// empty data means "could not be fetched", distinct from a genuinely empty
// result set.
type ResultStats struct {
	Operation      string        `json:"operation"`
	DataSource     DataSource    `json:"dataSource"`
	Quality        DataQuality   `json:"quality"`
	RealCount      int           `json:"realCount"`
	SyntheticCount int           `json:"syntheticCount"`
	CacheHit       bool          `json:"cacheHit"`
	FallbackUsed   bool          `json:"fallbackUsed"`
	Strategy       FallbackKind  `json:"strategy,omitempty"`
	Unavailable    bool          `json:"unavailable,omitempty"`
	FetchedAt      time.Time     `json:"fetchedAt"`
	Duration       time.Duration `json:"duration"`
}

// LeaderboardResult is the facade's leaderboard response.
type LeaderboardResult struct {
	Entries []MergedRecord `json:"entries"`
	Stats   ResultStats    `json:"stats"`
}

// AchievementResult is the facade's achievements response.
type AchievementResult struct {
	Achievements []MergedRecord `json:"achievements"`
	Stats        ResultStats    `json:"stats"`
}

// ChallengeResult is the facade's challenges response.
type ChallengeResult struct {
	Challenges []MergedRecord `json:"challenges"`
	Stats      ResultStats    `json:"stats"`
}

// UserStatsResult is the facade's user-stats response. IsRealUser reports
// whether the authoritative backend knew the user.
type UserStatsResult struct {
	Stats      UserStats   `json:"stats"`
	IsRealUser bool        `json:"isRealUser"`
	DataSource DataSource  `json:"dataSource"`
	Meta       ResultStats `json:"meta"`
}
