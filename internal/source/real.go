// Package source implements the two record sources behind the hybrid
// service: an HTTP client for the authoritative backend and a canned
// synthetic dataset. Both return the canonical record shape; permissive
// field mapping across backend naming conventions happens here and never
// leaks into the merge logic.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/types"
)

// HTTPSource fetches records from the real backend API. Every request
// carries the configured timeout; failures are classified into typed error
// kinds at this boundary.
type HTTPSource struct {
	baseURL string
	apiKey  types.Secret
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPSource creates a client for the real data source.
func NewHTTPSource(cfg config.SourceConfig, logger *slog.Logger) *HTTPSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSource{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger.With("component", "real-source"),
	}
}

func (s *HTTPSource) Name() types.DataSource {
	return types.SourceReal
}

// Leaderboard fetches ranked user entries for a timeframe.
func (s *HTTPSource) Leaderboard(ctx context.Context, q types.LeaderboardQuery) ([]types.MergedRecord, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Timeframe != "" {
		params.Set("time_period", q.Timeframe)
	}

	var rows []leaderboardRow
	if err := s.getJSON(ctx, "leaderboard", "/analytics/leaderboard?"+params.Encode(), &rows); err != nil {
		return nil, err
	}

	records := make([]types.MergedRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// Achievements fetches a user's earned achievements.
func (s *HTTPSource) Achievements(ctx context.Context, q types.AchievementQuery) ([]types.MergedRecord, error) {
	var rows []achievementRow
	if err := s.getJSON(ctx, "achievements", "/users/achievements/"+url.PathEscape(q.UserID), &rows); err != nil {
		return nil, err
	}

	records := make([]types.MergedRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// Challenges fetches active challenges, optionally only featured ones.
func (s *HTTPSource) Challenges(ctx context.Context, q types.ChallengeQuery) ([]types.MergedRecord, error) {
	params := url.Values{}
	if q.FeaturedOnly {
		params.Set("featured_only", "true")
	}

	var rows []challengeRow
	if err := s.getJSON(ctx, "challenges", "/users/challenges?"+params.Encode(), &rows); err != nil {
		return nil, err
	}

	records := make([]types.MergedRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// UserStats fetches one user's aggregate statistics.
func (s *HTTPSource) UserStats(ctx context.Context, userID string) (*types.UserStats, error) {
	var row userStatsRow
	if err := s.getJSON(ctx, "user_stats", "/users/stats/"+url.PathEscape(userID), &row); err != nil {
		return nil, err
	}
	stats := row.toStats(userID)
	return &stats, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, op, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return types.NewSourceError(op, types.SourceReal, types.KindValidation, err)
	}
	req.Header.Set("Accept", "application/json")
	if !s.apiKey.IsEmpty() {
		req.Header.Set("Authorization", "Bearer "+s.apiKey.Value())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return types.NewSourceError(op, types.SourceReal, classifyTransport(err), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return types.NewSourceError(op, types.SourceReal, types.KindUnauthorized,
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return types.NewSourceError(op, types.SourceReal, types.KindServer,
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return types.NewSourceError(op, types.SourceReal, types.KindValidation,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return types.NewSourceError(op, types.SourceReal, types.KindMalformed, err)
	}
	return nil
}

func classifyTransport(err error) types.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return types.KindTimeout
	}
	return types.KindNetwork
}

// The row types below accept the backend's historical field-name variants.
// Picking the first populated variant happens in the adapters; nothing past
// this file sees more than one name per field.

type leaderboardRow struct {
	UserID      string  `json:"user_id"`
	ID          string  `json:"id"`
	UserName    string  `json:"user_name"`
	FullName    string  `json:"full_name"`
	TotalPoints float64 `json:"total_points"`
	Points      float64 `json:"points"`
	ItemsSorted int     `json:"total_items_sorted"`
	ItemsAlt    int     `json:"items_sorted"`
	CO2Saved    float64 `json:"total_co2_saved"`
	CO2Alt      float64 `json:"co2e_saved"`
	Rank        int     `json:"rank_position"`
	RankAlt     int     `json:"rank"`
	AvatarURL   string  `json:"avatar_url"`
	UpdatedAt   string  `json:"updated_at"`
}

func (r leaderboardRow) toRecord() types.MergedRecord {
	points := firstPositiveF(r.TotalPoints, r.Points)
	return types.MergedRecord{
		ID:          firstNonEmpty(r.UserID, r.ID),
		Name:        firstNonEmpty(r.UserName, r.FullName, "Anonymous"),
		Score:       points,
		Points:      int(points),
		ItemsSorted: firstPositive(r.ItemsSorted, r.ItemsAlt),
		CO2SavedKg:  firstPositiveF(r.CO2Saved, r.CO2Alt),
		Rank:        firstPositive(r.Rank, r.RankAlt),
		AvatarURL:   r.AvatarURL,
		DataSource:  types.SourceReal,
		LastUpdated: parseTime(r.UpdatedAt),
	}
}

type achievementRow struct {
	ID       json.Number `json:"id"`
	Type     string      `json:"achievement_type"`
	TypeAlt  string      `json:"type"`
	Name     string      `json:"name"`
	Points   float64     `json:"points"`
	EarnedAt string      `json:"earned_at"`
}

func (r achievementRow) toRecord() types.MergedRecord {
	return types.MergedRecord{
		ID:          r.ID.String(),
		Name:        firstNonEmpty(r.Name, r.Type, r.TypeAlt),
		Score:       r.Points,
		Points:      int(r.Points),
		Unlocked:    true,
		Progress:    1,
		DataSource:  types.SourceReal,
		LastUpdated: parseTime(r.EarnedAt),
	}
}

type challengeRow struct {
	ID           json.Number `json:"id"`
	Title        string      `json:"title"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	RewardPoints float64     `json:"reward_points"`
	Featured     bool        `json:"is_featured"`
	FeaturedAlt  bool        `json:"featured"`
	CreatedAt    string      `json:"created_at"`
}

func (r challengeRow) toRecord() types.MergedRecord {
	return types.MergedRecord{
		ID:          r.ID.String(),
		Name:        firstNonEmpty(r.Title, r.Name),
		Description: r.Description,
		Score:       r.RewardPoints,
		Points:      int(r.RewardPoints),
		Featured:    r.Featured || r.FeaturedAlt,
		DataSource:  types.SourceReal,
		LastUpdated: parseTime(r.CreatedAt),
	}
}

type userStatsRow struct {
	UserID           string  `json:"user_id"`
	TotalPoints      float64 `json:"total_points"`
	PointsAlt        float64 `json:"points"`
	ItemsSorted      int     `json:"total_items_sorted"`
	ItemsAlt         int     `json:"items_sorted"`
	CO2Saved         float64 `json:"total_co2_saved"`
	CO2Alt           float64 `json:"co2e_saved"`
	Rank             int     `json:"rank"`
	AchievementCount int     `json:"achievement_count"`
	LastActive       string  `json:"last_active"`
}

func (r userStatsRow) toStats(userID string) types.UserStats {
	return types.UserStats{
		UserID:           firstNonEmpty(r.UserID, userID),
		TotalPoints:      int(firstPositiveF(r.TotalPoints, r.PointsAlt)),
		ItemsSorted:      firstPositive(r.ItemsSorted, r.ItemsAlt),
		CO2SavedKg:       firstPositiveF(r.CO2Saved, r.CO2Alt),
		Rank:             r.Rank,
		AchievementCount: r.AchievementCount,
		LastActive:       parseTime(r.LastActive),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositiveF(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var _ types.RecordSource = (*HTTPSource)(nil)
