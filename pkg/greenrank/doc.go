// Package greenrank provides a resilient data access layer for recycling
// leaderboards, achievements, challenges, and user statistics.
//
// greenrank sits between a rendering layer and an unreliable backend API.
// It merges real backend data with deterministic synthetic data, caches the
// merged results, and degrades through a configurable fallback chain when
// the backend misbehaves. Callers always receive either usable data with
// its provenance, or an explicit "no data available" error, never a
// partial or raw response.
//
// # Features
//
//   - Hybrid Merging: real and synthetic records deduplicated, weighted,
//     and re-ranked, with a quality rating derived from the real-data ratio
//   - Caching: TTL plus LRU/FIFO/TTL eviction, optional Redis-backed
//     snapshot persistence across restarts
//   - Resilience: concurrency throttle with a bounded FIFO queue, retry
//     with exponential backoff, priority-ordered fallback strategies
//   - Observability: per-operation performance samples and averages, an
//     error report ledger, optional StatsD publishing
//   - Explicit Degradation: results carry their data source, quality, and
//     whether a fallback strategy produced them
//
// # Quick Start
//
// Create a service with the default configuration:
//
//	svc, err := greenrank.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
// # Fetching Data
//
// All read operations take a context and return a typed result:
//
//	ctx := context.Background()
//
//	lb, err := svc.GetLeaderboard(ctx, greenrank.LeaderboardQuery{
//	    Timeframe: "weekly",
//	    Limit:     10,
//	})
//
//	stats, err := svc.GetUserStats(ctx, "user-42")
//
// Every result embeds ResultStats describing where the data came from:
//
//	fmt.Println(lb.Stats.DataSource, lb.Stats.Quality, lb.Stats.FallbackUsed)
//
// When no strategy can produce data, operations return an error that
// satisfies IsNoData; an empty-but-successful result is not an error.
//
// # Configuration
//
// Load configuration from a JSON file, with environment overrides applied
// on top:
//
//	svc, err := greenrank.NewFromFile("config.json")
//
// Or customize the defaults:
//
//	cfg := greenrank.DefaultConfig()
//	cfg.Cache.MaxEntries = 500
//	cfg.Merge.SyntheticWeight = 0.5
//	svc, err := greenrank.NewFromConfig(cfg)
//
// Configuration can be patched at runtime; a patch applies atomically or
// not at all:
//
//	ttl := 2 * time.Minute
//	err := svc.UpdateConfig(greenrank.Patch{CacheTTL: &ttl})
//
// # Options
//
// Use functional options to inject backends and hooks:
//
//	svc, err := greenrank.NewFromConfig(cfg,
//	    greenrank.WithRealSource(apiSource),
//	    greenrank.WithNotifier(alerter),
//	    greenrank.WithLogger(logger),
//	)
//
// For testing, TestConfig returns a configuration with short timeouts and
// fallback delays.
//
// # Observability
//
// Inspect recent behavior per operation:
//
//	avg := svc.MetricsAverages(greenrank.OpLeaderboard)
//	fmt.Printf("calls=%d hit-rate=%.2f\n", avg.CallCount, avg.CacheHitRate)
//
//	for _, r := range svc.Reports() {
//	    fmt.Println(r.Severity.Level, r.Context.Operation, r.ChosenStrategy)
//	}
//
// # Thread Safety
//
// All service operations are safe for concurrent use from multiple
// goroutines.
package greenrank
