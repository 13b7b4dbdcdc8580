package resilience

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ecoloop/greenrank/internal/types"
)

// OperationContext identifies the call a failure belongs to.
type OperationContext struct {
	Component string    `json:"component"`
	Operation string    `json:"operation"`
	UserID    string    `json:"userId,omitempty"`
	CacheKey  string    `json:"cacheKey,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorReport records one failure and how (or whether) it was recovered.
// Reports are retained for diagnostics in a bounded ledger.
type ErrorReport struct {
	ID             string             `json:"id"`
	Err            error              `json:"-"`
	Message        string             `json:"message"`
	Context        OperationContext   `json:"context"`
	Severity       types.Severity     `json:"severity"`
	ChosenStrategy types.FallbackKind `json:"chosenStrategy,omitempty"`
	Resolved       bool               `json:"resolved"`
	ResolvedAt     time.Time          `json:"resolvedAt,omitzero"`
}

// newReport creates an unresolved report for a failure.
func newReport(err error, opCtx OperationContext) *ErrorReport {
	if opCtx.Timestamp.IsZero() {
		opCtx.Timestamp = time.Now()
	}
	return &ErrorReport{
		ID:       uuid.NewString(),
		Err:      err,
		Message:  err.Error(),
		Context:  opCtx,
		Severity: ClassifySeverity(types.KindOf(err)),
	}
}

// ClassifySeverity maps a typed error kind to a severity. The mapping is
// closed: new kinds must be added here, never inferred from message text.
// Severity only decides whether a user notification is surfaced; it never
// alters fallback order.
func ClassifySeverity(kind types.ErrorKind) types.Severity {
	switch kind {
	case types.KindNetwork, types.KindTimeout:
		return types.Severity{
			Level:          types.SeverityMedium,
			UserImpact:     types.ImpactModerate,
			RecoveryAction: "retry or serve cached data",
		}
	case types.KindUnauthorized:
		return types.Severity{
			Level:          types.SeverityHigh,
			UserImpact:     types.ImpactSevere,
			RecoveryAction: "re-authenticate",
		}
	case types.KindServer:
		return types.Severity{
			Level:          types.SeverityHigh,
			UserImpact:     types.ImpactModerate,
			RecoveryAction: "serve fallback data",
		}
	case types.KindValidation, types.KindMalformed:
		return types.Severity{
			Level:          types.SeverityMedium,
			UserImpact:     types.ImpactMinor,
			RecoveryAction: "serve default state",
		}
	default:
		return types.Severity{
			Level:          types.SeverityMedium,
			UserImpact:     types.ImpactMinor,
			RecoveryAction: "serve fallback data",
		}
	}
}

// Ledger retains the most recent error reports up to a cap; the oldest are
// dropped past it, never silently on the way in.
type Ledger struct {
	mu      sync.RWMutex
	reports []*ErrorReport
	cap     int
	dropped int64
}

// NewLedger creates a ledger retaining up to cap reports.
func NewLedger(cap int) *Ledger {
	if cap <= 0 {
		cap = 100
	}
	return &Ledger{cap: cap}
}

// Append adds a report, evicting the oldest if at capacity.
func (l *Ledger) Append(r *ErrorReport) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.reports) >= l.cap {
		l.reports = l.reports[1:]
		l.dropped++
	}
	l.reports = append(l.reports, r)
}

// Reports returns a copy of the retained reports, oldest first.
func (l *Ledger) Reports() []*ErrorReport {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*ErrorReport, len(l.reports))
	copy(out, l.reports)
	return out
}

// Len returns the number of retained reports.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.reports)
}

// Dropped returns how many reports aged out of the ledger.
func (l *Ledger) Dropped() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dropped
}
