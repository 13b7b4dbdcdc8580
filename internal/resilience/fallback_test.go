package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/types"
)

type stubCache struct {
	entries map[string][]byte
}

func (c *stubCache) Get(key string) ([]byte, bool) {
	v, ok := c.entries[key]
	return v, ok
}

type stubNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *stubNotifier) Notify(operation, message string, severity types.SeverityLevel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, operation)
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func newTestEngine(chains map[string][]config.StrategyConfig, cache CacheReader, notifier types.Notifier) *Engine {
	cfg := config.FallbackConfig{Enabled: true, MaxReports: 10, Chains: chains}
	backoff := NewBackoff(config.RetryConfig{BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, MaxAttempts: 2})
	return NewEngine(cfg, cache, backoff, notifier, nil)
}

func networkErr() error {
	return types.NewSourceError("op", types.SourceReal, types.KindNetwork, errors.New("connection refused"))
}

func TestEngineResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("runs strategies in priority order not list order", func(t *testing.T) {
		// Listed backwards on purpose: syntheticData priority 2 before
		// cachedData priority 1.
		chains := map[string][]config.StrategyConfig{
			"op": {
				{Kind: types.FallbackSyntheticData, Priority: 2},
				{Kind: types.FallbackCachedData, Priority: 1},
			},
		}
		cache := &stubCache{entries: map[string][]byte{"key1": []byte("cached")}}
		e := newTestEngine(chains, cache, nil)

		synCalled := false
		res := e.Resolve(ctx, ResolveRequest{
			Operation: "op",
			Cause:     networkErr(),
			Context:   OperationContext{Operation: "op", CacheKey: "key1"},
			Synthetic: func(context.Context) (any, error) {
				synCalled = true
				return "synthetic", nil
			},
		})

		if !res.Success {
			t.Fatal("Resolve() Success = false")
		}
		if res.Strategy != types.FallbackCachedData {
			t.Errorf("Strategy = %v, want cachedData (priority 1)", res.Strategy)
		}
		if string(res.Data.([]byte)) != "cached" {
			t.Errorf("Data = %v, want cached bytes", res.Data)
		}
		if synCalled {
			t.Error("lower-priority strategy ran despite earlier success")
		}
	})

	t.Run("failed strategy hands over to the next", func(t *testing.T) {
		chains := map[string][]config.StrategyConfig{
			"op": {
				{Kind: types.FallbackCachedData, Priority: 1},
				{Kind: types.FallbackSyntheticData, Priority: 2},
			},
		}
		e := newTestEngine(chains, &stubCache{entries: map[string][]byte{}}, nil)

		res := e.Resolve(ctx, ResolveRequest{
			Operation: "op",
			Cause:     networkErr(),
			Context:   OperationContext{Operation: "op", CacheKey: "missing"},
			Synthetic: func(context.Context) (any, error) { return "synthetic", nil },
		})

		if !res.Success {
			t.Fatal("Resolve() Success = false")
		}
		if res.Strategy != types.FallbackSyntheticData {
			t.Errorf("Strategy = %v, want syntheticData after cache miss", res.Strategy)
		}
	})

	t.Run("default state cannot fail", func(t *testing.T) {
		chains := map[string][]config.StrategyConfig{
			"op": {{Kind: types.FallbackDefaultState, Priority: 1}},
		}
		e := newTestEngine(chains, nil, nil)

		res := e.Resolve(ctx, ResolveRequest{
			Operation: "op",
			Cause:     networkErr(),
			Default:   func() any { return "empty" },
		})
		if !res.Success {
			t.Fatal("Resolve() Success = false for defaultState")
		}
		if res.Data.(string) != "empty" {
			t.Errorf("Data = %v, want empty", res.Data)
		}
	})

	t.Run("retry backoff recovers a healing source", func(t *testing.T) {
		chains := map[string][]config.StrategyConfig{
			"op": {{Kind: types.FallbackRetryBackoff, Priority: 1, MaxAttempts: 3}},
		}
		e := newTestEngine(chains, nil, nil)

		attempts := 0
		res := e.Resolve(ctx, ResolveRequest{
			Operation: "op",
			Cause:     networkErr(),
			Retry: func(context.Context) (any, error) {
				attempts++
				if attempts < 2 {
					return nil, networkErr()
				}
				return "recovered", nil
			},
		})
		if !res.Success {
			t.Fatal("Resolve() Success = false")
		}
		if res.Strategy != types.FallbackRetryBackoff {
			t.Errorf("Strategy = %v, want retryBackoff", res.Strategy)
		}
		if attempts != 2 {
			t.Errorf("attempts = %d, want 2", attempts)
		}
	})

	t.Run("notify user never supplies data", func(t *testing.T) {
		chains := map[string][]config.StrategyConfig{
			"op": {
				{Kind: types.FallbackNotifyUser, Priority: 1},
				{Kind: types.FallbackDefaultState, Priority: 2},
			},
		}
		notifier := &stubNotifier{}
		e := newTestEngine(chains, nil, notifier)

		res := e.Resolve(ctx, ResolveRequest{
			Operation: "op",
			Cause:     networkErr(),
			Default:   func() any { return "empty" },
		})
		if notifier.count() != 1 {
			t.Errorf("notifier calls = %d, want 1", notifier.count())
		}
		if !res.Success || res.Strategy != types.FallbackDefaultState {
			t.Errorf("Strategy = %v, want chain to continue to defaultState", res.Strategy)
		}
	})

	t.Run("nil hooks make a strategy fail quietly", func(t *testing.T) {
		chains := map[string][]config.StrategyConfig{
			"op": {
				{Kind: types.FallbackSyntheticData, Priority: 1},
				{Kind: types.FallbackRetryBackoff, Priority: 2},
				{Kind: types.FallbackDefaultState, Priority: 3},
			},
		}
		e := newTestEngine(chains, nil, nil)

		res := e.Resolve(ctx, ResolveRequest{
			Operation: "op",
			Cause:     networkErr(),
			Default:   func() any { return "empty" },
		})
		if !res.Success || res.Strategy != types.FallbackDefaultState {
			t.Errorf("Strategy = %v, want defaultState when other hooks nil", res.Strategy)
		}
	})

	t.Run("exhausted chain reports failure", func(t *testing.T) {
		chains := map[string][]config.StrategyConfig{
			"op": {{Kind: types.FallbackSyntheticData, Priority: 1}},
		}
		e := newTestEngine(chains, nil, nil)

		res := e.Resolve(ctx, ResolveRequest{
			Operation: "op",
			Cause:     networkErr(),
			Synthetic: func(context.Context) (any, error) { return nil, errors.New("also broken") },
		})
		if res.Success {
			t.Fatal("Resolve() Success = true for exhausted chain")
		}
		if res.Report == nil || res.Report.Resolved {
			t.Error("report missing or marked resolved for failed resolution")
		}
	})

	t.Run("no chain configured", func(t *testing.T) {
		e := newTestEngine(map[string][]config.StrategyConfig{}, nil, nil)

		if e.HasChain("op") {
			t.Error("HasChain() = true for unconfigured operation")
		}
		res := e.Resolve(ctx, ResolveRequest{Operation: "op", Cause: networkErr()})
		if res.Success {
			t.Error("Resolve() Success = true with no chain")
		}
	})
}

func TestEngineLedger(t *testing.T) {
	ctx := context.Background()
	chains := map[string][]config.StrategyConfig{
		"op": {{Kind: types.FallbackDefaultState, Priority: 1}},
	}
	e := newTestEngine(chains, nil, nil)

	t.Run("every resolution appends a report", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			e.Resolve(ctx, ResolveRequest{
				Operation: "op",
				Cause:     networkErr(),
				Default:   func() any { return "empty" },
			})
		}
		if got := e.Ledger().Len(); got != 3 {
			t.Errorf("Ledger().Len() = %d, want 3", got)
		}
	})

	t.Run("resolved report carries strategy and time", func(t *testing.T) {
		reports := e.Ledger().Reports()
		last := reports[len(reports)-1]
		if !last.Resolved {
			t.Error("Resolved = false for successful resolution")
		}
		if last.ChosenStrategy != types.FallbackDefaultState {
			t.Errorf("ChosenStrategy = %v, want defaultState", last.ChosenStrategy)
		}
		if last.ResolvedAt.IsZero() {
			t.Error("ResolvedAt left zero")
		}
	})
}
