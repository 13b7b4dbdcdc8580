package resilience

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/types"
)

// CacheReader is the slice of the cache store the fallback engine needs.
type CacheReader interface {
	Get(key string) ([]byte, bool)
}

// ResolveRequest carries a failure into the engine together with the
// operation-specific hooks each strategy may need. A nil hook makes the
// corresponding strategy report failure and hand over to the next one.
type ResolveRequest struct {
	Operation string
	Cause     error
	Context   OperationContext

	// Synthetic fetches the same logical query from the synthetic source.
	Synthetic func(context.Context) (any, error)
	// Default returns the operation's statically defined empty value.
	Default func() any
	// Retry re-invokes the original failing operation.
	Retry func(context.Context) (any, error)
}

// Resolution is the engine's answer: recovered data and the strategy that
// produced it, or Success=false when the whole chain was exhausted.
type Resolution struct {
	Success  bool
	Data     any
	Strategy types.FallbackKind
	Report   *ErrorReport
}

// Engine executes per-operation recovery chains in strict ascending
// priority order, short-circuiting on the first strategy that succeeds.
// Every invocation appends an ErrorReport to the ledger.
type Engine struct {
	chains   map[string][]config.StrategyConfig
	cache    CacheReader
	backoff  *Backoff
	notifier types.Notifier
	ledger   *Ledger
	logger   *slog.Logger
}

// NewEngine builds an engine from the configured chains. Chains are sorted
// by priority once here and read-only afterwards.
func NewEngine(cfg config.FallbackConfig, cache CacheReader, backoff *Backoff, notifier types.Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	chains := make(map[string][]config.StrategyConfig, len(cfg.Chains))
	for op, chain := range cfg.Chains {
		sorted := make([]config.StrategyConfig, len(chain))
		copy(sorted, chain)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Priority < sorted[j].Priority
		})
		chains[op] = sorted
	}

	return &Engine{
		chains:   chains,
		cache:    cache,
		backoff:  backoff,
		notifier: notifier,
		ledger:   NewLedger(cfg.MaxReports),
		logger:   logger.With("component", "fallback-engine"),
	}
}

// Ledger exposes the error-report ledger for diagnostics.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// HasChain reports whether strategies are configured for operation.
func (e *Engine) HasChain(operation string) bool {
	return len(e.chains[operation]) > 0
}

// Resolve runs the chain for req.Operation against the failure in
// req.Cause. The report is appended to the ledger whether or not any
// strategy succeeds.
func (e *Engine) Resolve(ctx context.Context, req ResolveRequest) Resolution {
	report := newReport(req.Cause, req.Context)
	defer e.ledger.Append(report)

	chain := e.chains[req.Operation]
	if len(chain) == 0 {
		e.logger.Warn("no fallback chain configured",
			"operation", req.Operation,
			"error", req.Cause,
		)
		return Resolution{Report: report}
	}

	for _, strategy := range chain {
		data, ok := e.attempt(ctx, strategy, req, report)
		if ok {
			report.Resolved = true
			report.ResolvedAt = time.Now()
			report.ChosenStrategy = strategy.Kind
			e.logger.Debug("fallback recovered",
				"operation", req.Operation,
				"strategy", string(strategy.Kind),
			)
			return Resolution{Success: true, Data: data, Strategy: strategy.Kind, Report: report}
		}
	}

	e.logger.Warn("fallback chain exhausted",
		"operation", req.Operation,
		"error", req.Cause,
		"severity", string(report.Severity.Level),
	)
	return Resolution{Report: report}
}

func (e *Engine) attempt(ctx context.Context, s config.StrategyConfig, req ResolveRequest, report *ErrorReport) (any, bool) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	switch s.Kind {
	case types.FallbackCachedData:
		if e.cache == nil || req.Context.CacheKey == "" {
			return nil, false
		}
		// Succeeds only for a non-expired entry; the store treats expired
		// entries as absent.
		data, ok := e.cache.Get(req.Context.CacheKey)
		return data, ok

	case types.FallbackSyntheticData:
		if req.Synthetic == nil {
			return nil, false
		}
		data, err := req.Synthetic(ctx)
		if err != nil {
			return nil, false
		}
		return data, true

	case types.FallbackDefaultState:
		if req.Default == nil {
			return nil, false
		}
		return req.Default(), true

	case types.FallbackRetryBackoff:
		if req.Retry == nil || e.backoff == nil {
			return nil, false
		}
		data, err := e.backoff.Run(ctx, s.MaxAttempts, req.Retry)
		if err != nil {
			return nil, false
		}
		return data, true

	case types.FallbackNotifyUser:
		// Terminal give-up strategy: triggers the notification side effect
		// but never supplies data to the chain.
		if e.notifier != nil && report.Severity.Level != types.SeverityLow {
			e.notifier.Notify(req.Operation, report.Message, report.Severity.Level)
		}
		return nil, false

	default:
		return nil, false
	}
}
