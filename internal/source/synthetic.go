package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ecoloop/greenrank/internal/cache"
	"github.com/ecoloop/greenrank/internal/types"
)

// Points awarded per sorted item by decision, matching the backend's rules.
const (
	pointsRecycling = 10
	pointsCompost   = 8
	pointsTrash     = 2
)

// co2PerItemKg is the average CO2 saving credited per correctly sorted item.
const co2PerItemKg = 0.7

var syntheticNames = []string{
	"Maya Green", "Oliver Banks", "Priya Patel", "Lucas Moreau", "Sofia Reyes",
	"Ethan Walsh", "Amara Okafor", "Noah Kim", "Isla Thompson", "Mateo Cruz",
	"Hana Sato", "Leo Fischer", "Zara Ahmed", "Finn O'Brien", "Nina Volkov",
	"Kai Nakamura", "Elena Rossi", "Jonas Berg", "Aisha Diallo", "Tom Keller",
}

type syntheticAchievement struct {
	name   string
	points int
}

var achievementCatalog = []syntheticAchievement{
	{"First Sort", 10},
	{"Recycling Rookie", 25},
	{"Compost Champion", 50},
	{"Week Streak", 75},
	{"CO2 Saver", 100},
	{"Sorting Machine", 150},
	{"Community Leader", 200},
	{"Zero Waste Hero", 300},
}

type syntheticChallenge struct {
	name        string
	description string
	reward      int
	featured    bool
}

var challengeCatalog = []syntheticChallenge{
	{"Weekend Warrior", "Sort 20 items over the weekend", 50, true},
	{"Plastic Purge", "Recycle 30 plastic items this week", 75, true},
	{"Compost Kickstart", "Compost 15 items in 5 days", 60, false},
	{"Daily Dozen", "Sort 12 items every day for a week", 100, false},
	{"Glass Act", "Recycle 10 glass items", 40, false},
	{"Neighborhood Hero", "Invite 3 friends to join", 120, true},
}

// Synthetic serves a canned, deterministically sampled dataset shaped like
// the real backend's records. The same query always yields the same data
// within a process; generation results are memoized since the sampler is a
// pure function of its query. It never errors.
type Synthetic struct {
	memo   *cache.Memoizer
	logger *slog.Logger
}

// NewSynthetic creates the synthetic source. memo may be nil, in which case
// every call regenerates (still deterministically).
func NewSynthetic(memo *cache.Memoizer, logger *slog.Logger) *Synthetic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthetic{
		memo:   memo,
		logger: logger.With("component", "synthetic-source"),
	}
}

func (s *Synthetic) Name() types.DataSource {
	return types.SourceSynthetic
}

// Leaderboard returns a ranked set of plausible users for the timeframe.
func (s *Synthetic) Leaderboard(ctx context.Context, q types.LeaderboardQuery) ([]types.MergedRecord, error) {
	return s.memoized("synthetic.leaderboard", q, func() []types.MergedRecord {
		return s.generateLeaderboard(q)
	}), nil
}

// Achievements returns a deterministic unlocked/in-progress split of the
// achievement catalog for the user.
func (s *Synthetic) Achievements(ctx context.Context, q types.AchievementQuery) ([]types.MergedRecord, error) {
	return s.memoized("synthetic.achievements", q, func() []types.MergedRecord {
		return s.generateAchievements(q)
	}), nil
}

// Challenges returns the challenge catalog, optionally only featured ones.
func (s *Synthetic) Challenges(ctx context.Context, q types.ChallengeQuery) ([]types.MergedRecord, error) {
	return s.memoized("synthetic.challenges", q, func() []types.MergedRecord {
		return s.generateChallenges(q)
	}), nil
}

// UserStats returns plausible aggregate stats derived from the user id.
func (s *Synthetic) UserStats(ctx context.Context, userID string) (*types.UserStats, error) {
	rng := rngFor("user_stats", userID)
	items := 20 + rng.Intn(400)
	return &types.UserStats{
		UserID:           userID,
		TotalPoints:      items * samplePointsPerItem(rng),
		ItemsSorted:      items,
		CO2SavedKg:       round1(float64(items) * co2PerItemKg),
		Rank:             1 + rng.Intn(100),
		AchievementCount: rng.Intn(len(achievementCatalog)),
		LastActive:       time.Now().Add(-time.Duration(rng.Intn(72)) * time.Hour),
	}, nil
}

// memoized returns the memo-cached generation result for the query,
// regenerating on any memo problem. The generators are pure functions of
// their query, which is what makes them safe to memoize.
func (s *Synthetic) memoized(name string, args any, generate func() []types.MergedRecord) []types.MergedRecord {
	if s.memo == nil {
		return generate()
	}
	var records []types.MergedRecord
	err := s.memo.Do(name, args, &records, func() (any, error) {
		return generate(), nil
	})
	if err != nil {
		return generate()
	}
	return records
}

func (s *Synthetic) generateLeaderboard(q types.LeaderboardQuery) []types.MergedRecord {
	rng := rngFor("leaderboard", q.Timeframe)

	n := len(syntheticNames)
	if q.Limit > 0 && q.Limit < n {
		n = q.Limit
	}

	records := make([]types.MergedRecord, 0, n)
	for i := 0; i < n; i++ {
		items := 10 + rng.Intn(300)
		points := items * samplePointsPerItem(rng)
		records = append(records, types.MergedRecord{
			ID:          fmt.Sprintf("synthetic-user-%02d", i+1),
			Name:        syntheticNames[i],
			Score:       float64(points),
			Points:      points,
			ItemsSorted: items,
			CO2SavedKg:  round1(float64(items) * co2PerItemKg),
			DataSource:  types.SourceSynthetic,
			LastUpdated: time.Now(),
		})
	}
	return records
}

func (s *Synthetic) generateAchievements(q types.AchievementQuery) []types.MergedRecord {
	rng := rngFor("achievements", q.UserID)

	records := make([]types.MergedRecord, 0, len(achievementCatalog))
	for i, a := range achievementCatalog {
		unlocked := rng.Float64() < 0.5
		progress := 1.0
		if !unlocked {
			progress = round1(rng.Float64())
		}
		records = append(records, types.MergedRecord{
			ID:          fmt.Sprintf("synthetic-achievement-%02d", i+1),
			Name:        a.name,
			Score:       float64(a.points),
			Points:      a.points,
			Unlocked:    unlocked,
			Progress:    progress,
			DataSource:  types.SourceSynthetic,
			LastUpdated: time.Now(),
		})
	}
	return records
}

func (s *Synthetic) generateChallenges(q types.ChallengeQuery) []types.MergedRecord {
	records := make([]types.MergedRecord, 0, len(challengeCatalog))
	for i, c := range challengeCatalog {
		if q.FeaturedOnly && !c.featured {
			continue
		}
		records = append(records, types.MergedRecord{
			ID:          fmt.Sprintf("synthetic-challenge-%02d", i+1),
			Name:        c.name,
			Description: c.description,
			Score:       float64(c.reward),
			Points:      c.reward,
			Featured:    c.featured,
			DataSource:  types.SourceSynthetic,
			LastUpdated: time.Now(),
		})
	}
	return records
}

// rngFor derives a deterministic generator from the query identity so that
// identical queries sample identical data.
func rngFor(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func samplePointsPerItem(rng *rand.Rand) int {
	switch rng.Intn(3) {
	case 0:
		return pointsRecycling
	case 1:
		return pointsCompost
	default:
		return pointsTrash
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

var _ types.RecordSource = (*Synthetic)(nil)
