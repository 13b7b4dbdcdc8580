package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/types"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) *HTTPSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPSource(config.SourceConfig{
		BaseURL:        srv.URL,
		APIKey:         config.NewSecret("test-key"),
		RequestTimeout: 2 * time.Second,
	}, nil)
}

func TestHTTPSourceLeaderboard(t *testing.T) {
	ctx := context.Background()

	t.Run("maps canonical field names", func(t *testing.T) {
		s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/analytics/leaderboard" {
				t.Errorf("path = %s, want /analytics/leaderboard", r.URL.Path)
			}
			if got := r.URL.Query().Get("limit"); got != "10" {
				t.Errorf("limit = %q, want 10", got)
			}
			if got := r.URL.Query().Get("time_period"); got != "weekly" {
				t.Errorf("time_period = %q, want weekly", got)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("Authorization = %q, want bearer key", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"user_id":"u1","user_name":"Maya","total_points":420,"total_items_sorted":42,"total_co2_saved":29.4,"rank_position":1}]`))
		})

		records, err := s.Leaderboard(ctx, types.LeaderboardQuery{Limit: 10, Timeframe: "weekly"})
		if err != nil {
			t.Fatalf("Leaderboard() error = %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("len = %d, want 1", len(records))
		}
		r := records[0]
		if r.ID != "u1" || r.Name != "Maya" || r.Points != 420 || r.ItemsSorted != 42 || r.Rank != 1 {
			t.Errorf("record = %+v, want mapped fields", r)
		}
		if r.DataSource != types.SourceReal {
			t.Errorf("DataSource = %v, want real", r.DataSource)
		}
	})

	t.Run("accepts alternate field names", func(t *testing.T) {
		s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id":"u2","full_name":"Oliver","points":300,"items_sorted":30,"co2e_saved":21.0,"rank":2}]`))
		})

		records, err := s.Leaderboard(ctx, types.LeaderboardQuery{})
		if err != nil {
			t.Fatalf("Leaderboard() error = %v", err)
		}
		r := records[0]
		if r.ID != "u2" || r.Name != "Oliver" || r.Points != 300 || r.ItemsSorted != 30 || r.Rank != 2 {
			t.Errorf("record = %+v, want alternate names mapped", r)
		}
	})

	t.Run("missing name falls back to Anonymous", func(t *testing.T) {
		s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"user_id":"u3","total_points":10}]`))
		})

		records, _ := s.Leaderboard(ctx, types.LeaderboardQuery{})
		if records[0].Name != "Anonymous" {
			t.Errorf("Name = %q, want Anonymous", records[0].Name)
		}
	})
}

func TestHTTPSourceAchievements(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/achievements/u1" {
			t.Errorf("path = %s, want /users/achievements/u1", r.URL.Path)
		}
		w.Write([]byte(`[{"id":7,"achievement_type":"recycling_rookie","name":"Recycling Rookie","points":25,"earned_at":"2026-08-01T12:00:00Z"}]`))
	})

	records, err := s.Achievements(context.Background(), types.AchievementQuery{UserID: "u1"})
	if err != nil {
		t.Fatalf("Achievements() error = %v", err)
	}
	r := records[0]
	if r.ID != "7" || r.Name != "Recycling Rookie" || r.Points != 25 {
		t.Errorf("record = %+v, want mapped achievement", r)
	}
	if !r.Unlocked || r.Progress != 1 {
		t.Errorf("earned achievement Unlocked=%v Progress=%v, want true/1", r.Unlocked, r.Progress)
	}
	if r.LastUpdated.IsZero() {
		t.Error("LastUpdated zero, want parsed earned_at")
	}
}

func TestHTTPSourceChallenges(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("featured_only"); got != "true" {
			t.Errorf("featured_only = %q, want true", got)
		}
		w.Write([]byte(`[{"id":3,"title":"Plastic Purge","description":"Recycle 30 plastic items","reward_points":75,"is_featured":true}]`))
	})

	records, err := s.Challenges(context.Background(), types.ChallengeQuery{FeaturedOnly: true})
	if err != nil {
		t.Fatalf("Challenges() error = %v", err)
	}
	r := records[0]
	if r.Name != "Plastic Purge" || r.Points != 75 || !r.Featured {
		t.Errorf("record = %+v, want mapped challenge", r)
	}
}

func TestHTTPSourceUserStats(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/stats/u9" {
			t.Errorf("path = %s, want /users/stats/u9", r.URL.Path)
		}
		w.Write([]byte(`{"user_id":"u9","total_points":880,"total_items_sorted":88,"total_co2_saved":61.6,"rank":4,"achievement_count":3}`))
	})

	stats, err := s.UserStats(context.Background(), "u9")
	if err != nil {
		t.Fatalf("UserStats() error = %v", err)
	}
	if stats.UserID != "u9" || stats.TotalPoints != 880 || stats.ItemsSorted != 88 || stats.Rank != 4 {
		t.Errorf("stats = %+v, want mapped fields", stats)
	}
}

func TestHTTPSourceErrorClassification(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		status int
		body   string
		want   types.ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, "", types.KindUnauthorized},
		{"forbidden", http.StatusForbidden, "", types.KindUnauthorized},
		{"server error", http.StatusInternalServerError, "", types.KindServer},
		{"bad gateway", http.StatusBadGateway, "", types.KindServer},
		{"not found", http.StatusNotFound, "", types.KindValidation},
		{"malformed body", http.StatusOK, `{not json`, types.KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := s.Leaderboard(ctx, types.LeaderboardQuery{})
			if err == nil {
				t.Fatal("Leaderboard() error = nil, want classified error")
			}
			if got := types.KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("connection refused is a network error", func(t *testing.T) {
		s := NewHTTPSource(config.SourceConfig{
			BaseURL:        "http://127.0.0.1:1", // nothing listens here
			RequestTimeout: time.Second,
		}, nil)

		_, err := s.Leaderboard(ctx, types.LeaderboardQuery{})
		if err == nil {
			t.Fatal("Leaderboard() error = nil, want network error")
		}
		if got := types.KindOf(err); got != types.KindNetwork {
			t.Errorf("KindOf() = %v, want KindNetwork", got)
		}
	})

	t.Run("timeout classified as timeout", func(t *testing.T) {
		s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})
		s.client.Timeout = 20 * time.Millisecond

		_, err := s.Leaderboard(ctx, types.LeaderboardQuery{})
		if err == nil {
			t.Fatal("Leaderboard() error = nil, want timeout")
		}
		if got := types.KindOf(err); got != types.KindTimeout {
			t.Errorf("KindOf() = %v, want KindTimeout", got)
		}
	})

	t.Run("errors carry the source type", func(t *testing.T) {
		s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := s.UserStats(ctx, "u1")
		var se *types.SourceError
		if !errors.As(err, &se) {
			t.Fatalf("error = %v, want *types.SourceError", err)
		}
		if se.Op != "user_stats" || se.Source != types.SourceReal {
			t.Errorf("SourceError = %+v, want op user_stats on real source", se)
		}
	})
}

func TestParseTimeFormats(t *testing.T) {
	tests := []struct {
		input string
		zero  bool
	}{
		{"2026-08-29T10:30:00Z", false},
		{"2026-08-29T10:30:00", false},
		{"2026-08-29", false},
		{"", true},
		{"not a time", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseTime(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTime(%q).IsZero() = %v, want %v", tt.input, got.IsZero(), tt.zero)
			}
		})
	}
}
