// Package hybrid implements the facade of the data access layer: cache
// lookups, throttle-gated dual-source fetches, merging, fallback routing,
// and metrics recording behind one service type.
package hybrid

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ecoloop/greenrank/internal/cache"
	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/merge"
	"github.com/ecoloop/greenrank/internal/metrics"
	"github.com/ecoloop/greenrank/internal/metrics/datadog"
	"github.com/ecoloop/greenrank/internal/resilience"
	"github.com/ecoloop/greenrank/internal/source"
	"github.com/ecoloop/greenrank/internal/types"
)

const componentName = "hybrid-service"

// Options carries injectable collaborators. Nil fields fall back to the
// config-driven defaults.
type Options struct {
	Logger     *slog.Logger
	Real       types.RecordSource
	Synthetic  types.RecordSource
	Notifier   types.Notifier
	Sink       types.SnapshotSink
	Publisher  metrics.Publisher
	Serializer types.Serializer
}

// Service is the explicit constructed instance behind pkg/greenrank. It
// owns its cache and configuration; there is no package-level shared state.
type Service struct {
	cfgMu sync.RWMutex
	cfg   *config.Config

	store      *cache.Store
	memo       *cache.Memoizer
	real       types.RecordSource
	synthetic  types.RecordSource
	throttle   *resilience.Throttle
	backoff    *resilience.Backoff
	engine     *resilience.Engine
	recorder   *metrics.Recorder
	bgPublish  *metrics.BackgroundPublisher
	serializer types.Serializer
	logger     *slog.Logger

	sf     singleflight.Group
	closed atomic.Bool
}

// NewService validates cfg and wires the full stack.
func NewService(cfg *config.Config, opts *Options) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", componentName)

	sink := opts.Sink
	if sink == nil && cfg.Snapshot.Enabled {
		sink = cache.NewRedisSink(cfg.Snapshot, logger)
	}

	memo, err := cache.NewMemoizer(logger)
	if err != nil {
		return nil, fmt.Errorf("memoizer init: %w", err)
	}

	s := &Service{
		cfg:        cfg,
		store:      cache.NewStore(cfg.Cache, sink, logger),
		memo:       memo,
		throttle:   resilience.NewThrottle(cfg.Throttle),
		backoff:    resilience.NewBackoff(cfg.Retry),
		recorder:   metrics.NewRecorder(cfg.Metrics.BufferSize),
		serializer: opts.Serializer,
		logger:     logger,
	}
	if s.serializer == nil {
		s.serializer = cache.NewJSONSerializer()
	}

	s.real = opts.Real
	if s.real == nil {
		s.real = source.NewHTTPSource(cfg.Source, logger)
	}
	s.synthetic = opts.Synthetic
	if s.synthetic == nil {
		s.synthetic = source.NewSynthetic(memo, logger)
	}

	s.engine = resilience.NewEngine(cfg.Fallback, s.store, s.backoff, opts.Notifier, logger)

	publisher := opts.Publisher
	if publisher == nil {
		publisher, err = datadog.NewPublisher(cfg.Metrics.StatsD, logger)
		if err != nil {
			logger.Warn("statsd publisher unavailable, metrics publishing disabled", "error", err)
			publisher = &datadog.NoOpPublisher{}
		}
	}
	s.bgPublish = metrics.NewBackgroundPublisher(s.recorder, publisher, cfg.Metrics.PublishInterval, logger)

	return s, nil
}

// payload is the serialized form cached per query.
type payload struct {
	Records        []types.MergedRecord `json:"records"`
	Quality        types.DataQuality    `json:"quality"`
	RealCount      int                  `json:"realCount"`
	SyntheticCount int                  `json:"syntheticCount"`
}

func (p payload) dataSource() types.DataSource {
	switch {
	case p.RealCount > 0 && p.SyntheticCount > 0:
		return types.SourceMerged
	case p.RealCount > 0:
		return types.SourceReal
	default:
		return types.SourceSynthetic
	}
}

// outcome is what one resolved fetch (shared via singleflight) produced.
type outcome struct {
	payload      payload
	sizeBytes    int
	fallbackUsed bool
	strategy     types.FallbackKind
}

// GetLeaderboard serves ranked entries for the query.
func (s *Service) GetLeaderboard(ctx context.Context, q types.LeaderboardQuery) (*types.LeaderboardResult, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	key := fmt.Sprintf("%s:%d:%s:%s", config.OpLeaderboard, q.Limit, q.Timeframe, q.UserID)

	out, stats, err := s.getRecords(ctx, config.OpLeaderboard, key, q.Limit, q.UserID,
		func(ctx context.Context) ([]types.MergedRecord, error) { return s.real.Leaderboard(ctx, q) },
		func(ctx context.Context) ([]types.MergedRecord, error) { return s.synthetic.Leaderboard(ctx, q) },
	)
	if err != nil {
		return &types.LeaderboardResult{Stats: stats}, err
	}
	return &types.LeaderboardResult{Entries: out, Stats: stats}, nil
}

// GetAchievements serves a user's achievements.
func (s *Service) GetAchievements(ctx context.Context, q types.AchievementQuery) (*types.AchievementResult, error) {
	key := fmt.Sprintf("%s:%s", config.OpAchievements, q.UserID)

	out, stats, err := s.getRecords(ctx, config.OpAchievements, key, 0, q.UserID,
		func(ctx context.Context) ([]types.MergedRecord, error) { return s.real.Achievements(ctx, q) },
		func(ctx context.Context) ([]types.MergedRecord, error) { return s.synthetic.Achievements(ctx, q) },
	)
	if err != nil {
		return &types.AchievementResult{Stats: stats}, err
	}
	return &types.AchievementResult{Achievements: out, Stats: stats}, nil
}

// GetChallenges serves active challenges.
func (s *Service) GetChallenges(ctx context.Context, q types.ChallengeQuery) (*types.ChallengeResult, error) {
	key := fmt.Sprintf("%s:%t:%s", config.OpChallenges, q.FeaturedOnly, q.UserID)

	out, stats, err := s.getRecords(ctx, config.OpChallenges, key, 0, q.UserID,
		func(ctx context.Context) ([]types.MergedRecord, error) { return s.real.Challenges(ctx, q) },
		func(ctx context.Context) ([]types.MergedRecord, error) { return s.synthetic.Challenges(ctx, q) },
	)
	if err != nil {
		return &types.ChallengeResult{Stats: stats}, err
	}
	return &types.ChallengeResult{Challenges: out, Stats: stats}, nil
}

// getRecords is the shared facade path: cache lookup, coalesced dual fetch,
// merge, cache write, metrics sample, fallback on total failure.
func (s *Service) getRecords(
	ctx context.Context,
	op, key string,
	limit int,
	userID string,
	realFetch, synFetch func(context.Context) ([]types.MergedRecord, error),
) ([]types.MergedRecord, types.ResultStats, error) {
	start := time.Now()
	stats := types.ResultStats{Operation: op, FetchedAt: start}

	if s.closed.Load() {
		stats.Unavailable = true
		return nil, stats, types.ErrClosed
	}

	if data, ok := s.store.Get(key); ok {
		var p payload
		if err := s.serializer.Unmarshal(data, &p); err == nil {
			stats.CacheHit = true
			s.fillStats(&stats, p, start)
			s.sample(op, start, true, len(data), userID)
			return p.Records, stats, nil
		}
		// A corrupt entry is as good as absent.
		s.store.Delete(key)
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		return s.fetchAndMerge(ctx, op, key, limit, userID, realFetch, synFetch)
	})
	if err != nil {
		stats.Unavailable = true
		s.sample(op, start, false, 0, userID)
		return nil, stats, err
	}

	out := v.(outcome)
	stats.FallbackUsed = out.fallbackUsed
	stats.Strategy = out.strategy
	s.fillStats(&stats, out.payload, start)
	s.sample(op, start, false, out.sizeBytes, userID)
	return out.payload.Records, stats, nil
}

// fetchAndMerge runs inside singleflight: one execution per cache key no
// matter how many callers missed concurrently.
func (s *Service) fetchAndMerge(
	ctx context.Context,
	op, key string,
	limit int,
	userID string,
	realFetch, synFetch func(context.Context) ([]types.MergedRecord, error),
) (any, error) {
	realRecords, synRecords, fetchErr := s.fetchBoth(ctx, realFetch, synFetch)
	if fetchErr == nil {
		res := merge.Merge(realRecords, synRecords, s.weights(), limit)
		p := payload{
			Records:        res.Records,
			Quality:        res.Quality,
			RealCount:      res.RealCount,
			SyntheticCount: res.SyntheticCount,
		}
		size := s.cachePayload(key, p)
		return outcome{payload: p, sizeBytes: size}, nil
	}

	s.logger.Warn("both sources failed",
		"operation", op,
		"error", fetchErr,
	)

	if !s.fallbackEnabled() || !s.engine.HasChain(op) {
		return outcome{}, fmt.Errorf("%w: %s: %w", types.ErrNoData, op, fetchErr)
	}

	res := s.engine.Resolve(ctx, resilience.ResolveRequest{
		Operation: op,
		Cause:     fetchErr,
		Context: resilience.OperationContext{
			Component: componentName,
			Operation: op,
			UserID:    userID,
			CacheKey:  key,
			Timestamp: time.Now(),
		},
		Synthetic: func(ctx context.Context) (any, error) {
			records, err := synFetch(ctx)
			if err != nil {
				return nil, err
			}
			return payload{
				Records:        records,
				Quality:        merge.Quality(0, len(records)),
				SyntheticCount: len(records),
			}, nil
		},
		Default: func() any {
			return payload{Records: []types.MergedRecord{}, Quality: types.QualityPoor}
		},
		Retry: func(ctx context.Context) (any, error) {
			records, synRecords, err := s.fetchBoth(ctx, realFetch, synFetch)
			if err != nil {
				return nil, err
			}
			res := merge.Merge(records, synRecords, s.weights(), limit)
			return payload{
				Records:        res.Records,
				Quality:        res.Quality,
				RealCount:      res.RealCount,
				SyntheticCount: res.SyntheticCount,
			}, nil
		},
	})
	if !res.Success {
		return outcome{}, fmt.Errorf("%w: %s: %w", types.ErrNoData, op, fetchErr)
	}

	p, size, err := s.payloadFromFallback(res.Data)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: %s: %w", types.ErrNoData, op, err)
	}
	if res.Strategy == types.FallbackRetryBackoff {
		// A successful retry produced fresh merged data; cache it like a
		// normal fetch.
		size = s.cachePayload(key, p)
	}
	return outcome{payload: p, sizeBytes: size, fallbackUsed: true, strategy: res.Strategy}, nil
}

// fetchBoth issues the real and synthetic sub-fetches together through the
// shared throttle and joins them allowing partial failure: the call only
// fails when both sides fail.
func (s *Service) fetchBoth(
	ctx context.Context,
	realFetch, synFetch func(context.Context) ([]types.MergedRecord, error),
) (realRecords, synRecords []types.MergedRecord, err error) {
	timeout := s.requestTimeout()

	run := func(fetch func(context.Context) ([]types.MergedRecord, error)) ([]types.MergedRecord, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		v, err := s.throttle.Run(fetchCtx, func(ctx context.Context) (any, error) {
			return fetch(ctx)
		})
		if err != nil {
			return nil, err
		}
		return v.([]types.MergedRecord), nil
	}

	var wg sync.WaitGroup
	var realErr, synErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		realRecords, realErr = run(realFetch)
	}()
	go func() {
		defer wg.Done()
		synRecords, synErr = run(synFetch)
	}()
	wg.Wait()

	if realErr != nil && synErr != nil {
		return nil, nil, fmt.Errorf("real: %w; synthetic: %w", realErr, synErr)
	}
	if realErr != nil {
		s.logger.Debug("real source failed, continuing with synthetic only", "error", realErr)
		realRecords = nil
	}
	if synErr != nil {
		s.logger.Debug("synthetic source failed, continuing with real only", "error", synErr)
		synRecords = nil
	}
	return realRecords, synRecords, nil
}

// payloadFromFallback normalizes the engine's untyped data: cached entries
// arrive as serialized bytes, strategy closures return payloads directly.
func (s *Service) payloadFromFallback(data any) (payload, int, error) {
	switch v := data.(type) {
	case payload:
		return v, 0, nil
	case []byte:
		var p payload
		if err := s.serializer.Unmarshal(v, &p); err != nil {
			return payload{}, 0, err
		}
		return p, len(v), nil
	default:
		return payload{}, 0, fmt.Errorf("unexpected fallback data type %T", data)
	}
}

// cachePayload serializes and stores p, returning the serialized size.
func (s *Service) cachePayload(key string, p payload) int {
	data, err := s.serializer.Marshal(p)
	if err != nil {
		s.logger.Warn("payload marshal failed", "key", key, "error", err)
		return 0
	}
	s.store.Set(key, data, s.cacheTTL())
	return len(data)
}

func (s *Service) fillStats(stats *types.ResultStats, p payload, start time.Time) {
	stats.DataSource = p.dataSource()
	stats.Quality = p.Quality
	stats.RealCount = p.RealCount
	stats.SyntheticCount = p.SyntheticCount
	stats.Duration = time.Since(start)
}

func (s *Service) sample(op string, start time.Time, hit bool, size int, userID string) {
	s.recorder.Record(types.PerformanceSample{
		Operation:    op,
		Duration:     time.Since(start),
		CacheHit:     hit,
		PayloadBytes: size,
		Timestamp:    start,
		UserID:       userID,
	})
}

func (s *Service) weights() types.SourceWeight {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Merge.Weights()
}

func (s *Service) cacheTTL() time.Duration {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Cache.DefaultTTL
}

func (s *Service) requestTimeout() time.Duration {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Source.RequestTimeout
}

func (s *Service) fallbackEnabled() bool {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Fallback.Enabled
}
