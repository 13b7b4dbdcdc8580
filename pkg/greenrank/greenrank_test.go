package greenrank

import (
	"context"
	"errors"
	"testing"
	"time"
)

type cannedSource struct {
	name    DataSource
	fail    bool
	records []MergedRecord
}

func (s *cannedSource) Name() DataSource { return s.name }

func (s *cannedSource) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]MergedRecord, error) {
	if s.fail {
		return nil, errors.New("canned failure")
	}
	return s.records, nil
}

func (s *cannedSource) Achievements(ctx context.Context, q AchievementQuery) ([]MergedRecord, error) {
	if s.fail {
		return nil, errors.New("canned failure")
	}
	return s.records, nil
}

func (s *cannedSource) Challenges(ctx context.Context, q ChallengeQuery) ([]MergedRecord, error) {
	if s.fail {
		return nil, errors.New("canned failure")
	}
	return s.records, nil
}

func (s *cannedSource) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	if s.fail {
		return nil, errors.New("canned failure")
	}
	return &UserStats{UserID: userID, TotalPoints: 42}, nil
}

func TestNewFromConfig(t *testing.T) {
	t.Run("rejects invalid configuration", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Cache.MaxEntries = -1
		if _, err := NewFromConfig(cfg); err == nil {
			t.Error("NewFromConfig() error = nil for invalid config")
		}
	})

	t.Run("serves through injected sources", func(t *testing.T) {
		real := &cannedSource{name: SourceReal, records: []MergedRecord{
			{ID: "u1", Name: "Maya", Score: 500, Points: 500},
		}}
		syn := &cannedSource{name: SourceSynthetic}

		svc, err := NewFromConfig(TestConfig(), WithRealSource(real), WithSyntheticSource(syn))
		if err != nil {
			t.Fatalf("NewFromConfig() error = %v", err)
		}
		defer svc.Close()

		res, err := svc.GetLeaderboard(context.Background(), LeaderboardQuery{Limit: 5})
		if err != nil {
			t.Fatalf("GetLeaderboard() error = %v", err)
		}
		if len(res.Entries) != 1 || res.Entries[0].ID != "u1" {
			t.Errorf("Entries = %+v, want the injected record", res.Entries)
		}
	})

	t.Run("failed backend degrades to synthetic dataset", func(t *testing.T) {
		real := &cannedSource{name: SourceReal, fail: true}
		syn := &cannedSource{name: SourceSynthetic, records: []MergedRecord{
			{ID: "s1", Name: "Sample", Score: 100, Points: 100},
		}}

		svc, err := NewFromConfig(TestConfig(), WithRealSource(real), WithSyntheticSource(syn))
		if err != nil {
			t.Fatalf("NewFromConfig() error = %v", err)
		}
		defer svc.Close()

		res, err := svc.GetLeaderboard(context.Background(), LeaderboardQuery{Limit: 5})
		if err != nil {
			t.Fatalf("GetLeaderboard() error = %v", err)
		}
		if res.Stats.DataSource != SourceSynthetic {
			t.Errorf("Stats.DataSource = %v, want synthetic", res.Stats.DataSource)
		}
		if res.Stats.Quality != QualityPoor {
			t.Errorf("Stats.Quality = %v, want poor", res.Stats.Quality)
		}
	})
}

func TestNewFromFile(t *testing.T) {
	// No file: defaults plus env overrides.
	t.Setenv("GREENRANK_CACHE_DEFAULT_TTL", "90s")

	svc, err := NewFromFile("", WithRealSource(&cannedSource{name: SourceReal}), WithSyntheticSource(&cannedSource{name: SourceSynthetic}))
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	defer svc.Close()

	if got := svc.GetConfig().Cache.DefaultTTL; got != 90*time.Second {
		t.Errorf("Cache.DefaultTTL = %v, want 90s from environment", got)
	}
}
