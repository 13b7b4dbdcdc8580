package hybrid

import (
	"context"
	"fmt"
	"time"

	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/resilience"
	"github.com/ecoloop/greenrank/internal/types"
)

// userStatsPayload is the cached form of a user-stats response.
type userStatsPayload struct {
	Stats      types.UserStats  `json:"stats"`
	IsRealUser bool             `json:"isRealUser"`
	DataSource types.DataSource `json:"dataSource"`
}

// GetUserStats serves one user's aggregate statistics. Unlike the list
// operations it prefers the real source outright: IsRealUser reports
// whether the authoritative backend knew the user, so blending sources
// would make the flag meaningless.
func (s *Service) GetUserStats(ctx context.Context, userID string) (*types.UserStatsResult, error) {
	start := time.Now()
	op := config.OpUserStats
	key := fmt.Sprintf("%s:%s", op, userID)

	meta := types.ResultStats{Operation: op, FetchedAt: start}

	if s.closed.Load() {
		meta.Unavailable = true
		return &types.UserStatsResult{Meta: meta}, types.ErrClosed
	}

	if data, ok := s.store.Get(key); ok {
		var p userStatsPayload
		if err := s.serializer.Unmarshal(data, &p); err == nil {
			meta.CacheHit = true
			meta.DataSource = p.DataSource
			meta.Duration = time.Since(start)
			s.sample(op, start, true, len(data), userID)
			return &types.UserStatsResult{
				Stats:      p.Stats,
				IsRealUser: p.IsRealUser,
				DataSource: p.DataSource,
				Meta:       meta,
			}, nil
		}
		s.store.Delete(key)
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		return s.fetchUserStats(ctx, op, key, userID)
	})
	if err != nil {
		meta.Unavailable = true
		s.sample(op, start, false, 0, userID)
		return &types.UserStatsResult{Meta: meta}, err
	}

	out := v.(statsOutcome)
	meta.DataSource = out.payload.DataSource
	meta.FallbackUsed = out.fallbackUsed
	meta.Strategy = out.strategy
	meta.Duration = time.Since(start)
	s.sample(op, start, false, out.sizeBytes, userID)

	return &types.UserStatsResult{
		Stats:      out.payload.Stats,
		IsRealUser: out.payload.IsRealUser,
		DataSource: out.payload.DataSource,
		Meta:       meta,
	}, nil
}

type statsOutcome struct {
	payload      userStatsPayload
	sizeBytes    int
	fallbackUsed bool
	strategy     types.FallbackKind
}

func (s *Service) fetchUserStats(ctx context.Context, op, key, userID string) (any, error) {
	fetchReal := func(ctx context.Context) (any, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, s.requestTimeout())
		defer cancel()
		return s.throttle.Run(fetchCtx, func(ctx context.Context) (any, error) {
			return s.real.UserStats(ctx, userID)
		})
	}

	if v, err := fetchReal(ctx); err == nil {
		p := userStatsPayload{
			Stats:      *v.(*types.UserStats),
			IsRealUser: true,
			DataSource: types.SourceReal,
		}
		size := s.cacheUserStats(key, p)
		return statsOutcome{payload: p, sizeBytes: size}, nil
	} else if !s.fallbackEnabled() || !s.engine.HasChain(op) {
		return statsOutcome{}, fmt.Errorf("%w: %s: %w", types.ErrNoData, op, err)
	} else {
		res := s.engine.Resolve(ctx, resilience.ResolveRequest{
			Operation: op,
			Cause:     err,
			Context: resilience.OperationContext{
				Component: componentName,
				Operation: op,
				UserID:    userID,
				CacheKey:  key,
				Timestamp: time.Now(),
			},
			Synthetic: func(ctx context.Context) (any, error) {
				stats, err := s.synthetic.UserStats(ctx, userID)
				if err != nil {
					return nil, err
				}
				return userStatsPayload{
					Stats:      *stats,
					DataSource: types.SourceSynthetic,
				}, nil
			},
			Default: func() any {
				return userStatsPayload{
					Stats:      types.UserStats{UserID: userID},
					DataSource: types.SourceSynthetic,
				}
			},
			Retry: fetchReal,
		})
		if !res.Success {
			return statsOutcome{}, fmt.Errorf("%w: %s: %w", types.ErrNoData, op, err)
		}

		p, size, perr := s.userStatsFromFallback(res.Data)
		if perr != nil {
			return statsOutcome{}, fmt.Errorf("%w: %s: %w", types.ErrNoData, op, perr)
		}
		if res.Strategy == types.FallbackRetryBackoff {
			size = s.cacheUserStats(key, p)
		}
		return statsOutcome{payload: p, sizeBytes: size, fallbackUsed: true, strategy: res.Strategy}, nil
	}
}

func (s *Service) userStatsFromFallback(data any) (userStatsPayload, int, error) {
	switch v := data.(type) {
	case userStatsPayload:
		return v, 0, nil
	case *types.UserStats:
		// retryBackoff re-ran the real fetch.
		return userStatsPayload{Stats: *v, IsRealUser: true, DataSource: types.SourceReal}, 0, nil
	case []byte:
		var p userStatsPayload
		if err := s.serializer.Unmarshal(v, &p); err != nil {
			return userStatsPayload{}, 0, err
		}
		return p, len(v), nil
	default:
		return userStatsPayload{}, 0, fmt.Errorf("unexpected fallback data type %T", data)
	}
}

func (s *Service) cacheUserStats(key string, p userStatsPayload) int {
	data, err := s.serializer.Marshal(p)
	if err != nil {
		s.logger.Warn("user stats marshal failed", "key", key, "error", err)
		return 0
	}
	s.store.Set(key, data, s.cacheTTL())
	return len(data)
}
