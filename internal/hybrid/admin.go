package hybrid

import (
	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/metrics"
	"github.com/ecoloop/greenrank/internal/resilience"
	"github.com/ecoloop/greenrank/internal/types"
)

// ClearCache drops every cached result, including snapshotted ones, and
// empties the memoizer.
func (s *Service) ClearCache() {
	s.store.Clear()
	if err := s.memo.Clear(); err != nil {
		s.logger.Warn("memoizer clear failed", "error", err)
	}
}

// UpdateConfig applies a partial configuration update. Invalid values fail
// here, atomically: either the whole patch applies or none of it does.
func (s *Service) UpdateConfig(patch config.Patch) error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	next, err := patch.Apply(s.cfg)
	if err != nil {
		return err
	}
	s.cfg = next
	s.logger.Info("configuration updated",
		"cacheTTL", next.Cache.DefaultTTL,
		"realWeight", next.Merge.RealWeight,
		"syntheticWeight", next.Merge.SyntheticWeight,
		"fallbackEnabled", next.Fallback.Enabled,
	)
	return nil
}

// GetConfig returns a copy of the active configuration.
func (s *Service) GetConfig() config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return *s.cfg
}

// Reports returns the retained error reports, oldest first.
func (s *Service) Reports() []*resilience.ErrorReport {
	return s.engine.Ledger().Reports()
}

// MetricsAverages returns aggregate metrics for one operation; an empty
// operation aggregates everything.
func (s *Service) MetricsAverages(operation string) metrics.Aggregates {
	return s.recorder.Averages(operation)
}

// MetricsSamples returns the retained performance samples for operation.
func (s *Service) MetricsSamples(operation string) []types.PerformanceSample {
	return s.recorder.Query(operation)
}

// CacheStats returns the cache store's counters.
func (s *Service) CacheStats() types.CacheStats {
	return s.store.Stats()
}

// ThrottleStats returns the shared throttle's counters.
func (s *Service) ThrottleStats() resilience.ThrottleStats {
	return s.throttle.Stats()
}

// Close shuts the service down: metrics publishing stops, the cache store
// (and its snapshot sink) closes, the memoizer is released. In-flight
// calls finish against closed components and surface ErrClosed.
func (s *Service) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.bgPublish.Stop()
	err := s.store.Close()
	if cerr := s.memo.Close(); err == nil {
		err = cerr
	}
	return err
}
