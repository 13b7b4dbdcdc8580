// Package resilience implements the request throttle, retry backoff, and
// the priority-ordered fallback engine with its error-report ledger.
package resilience

import (
	"context"
	"sync/atomic"

	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/types"
)

// Throttle is a bounded-concurrency gate for outbound operations. At most
// maxConcurrent tasks run at once; additional callers block in arrival
// order (the runtime wakes blocked channel senders FIFO, so no caller can
// jump the queue). A queued-but-unstarted task is withdrawn when its
// context is cancelled; running tasks are never preempted.
type Throttle struct {
	maxConcurrent int
	maxQueue      int
	semaphore     chan struct{}

	activeCount   atomic.Int32
	queuedCount   atomic.Int32
	rejectedCount atomic.Int64
	totalExecuted atomic.Int64
}

// NewThrottle creates a throttle from config, applying defaults for zero
// values.
func NewThrottle(cfg config.ThrottleConfig) *Throttle {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	maxQueue := cfg.MaxQueue
	if maxQueue <= 0 {
		maxQueue = 64
	}

	return &Throttle{
		maxConcurrent: maxConcurrent,
		maxQueue:      maxQueue,
		semaphore:     make(chan struct{}, maxConcurrent),
	}
}

// Run executes fn once a concurrency slot is free. It returns the task's
// result, ctx.Err() if the caller gave up while queued, or
// types.ErrThrottleFull when the wait queue is at capacity.
func (t *Throttle) Run(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	if err := t.acquire(ctx); err != nil {
		return nil, err
	}
	defer t.release()

	t.activeCount.Add(1)
	defer t.activeCount.Add(-1)

	result, err := fn(ctx)
	t.totalExecuted.Add(1)

	return result, err
}

func (t *Throttle) acquire(ctx context.Context) error {
	// Fast path: free slot, no queueing.
	select {
	case t.semaphore <- struct{}{}:
		return nil
	default:
	}

	// Claim a queue slot with a CAS loop so concurrent arrivals can never
	// push the queue past maxQueue, keeping ErrThrottleFull exact.
	for {
		n := t.queuedCount.Load()
		if int(n) >= t.maxQueue {
			t.rejectedCount.Add(1)
			return types.ErrThrottleFull
		}
		if t.queuedCount.CompareAndSwap(n, n+1) {
			break
		}
	}
	defer t.queuedCount.Add(-1)

	select {
	case t.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		t.rejectedCount.Add(1)
		return ctx.Err()
	}
}

func (t *Throttle) release() {
	<-t.semaphore
}

// ActiveCount returns the number of running tasks.
func (t *Throttle) ActiveCount() int {
	return int(t.activeCount.Load())
}

// QueuedCount returns the number of callers waiting for a slot.
func (t *Throttle) QueuedCount() int {
	return int(t.queuedCount.Load())
}

// Stats returns throttle counters.
func (t *Throttle) Stats() ThrottleStats {
	return ThrottleStats{
		MaxConcurrent: t.maxConcurrent,
		MaxQueue:      t.maxQueue,
		Active:        int(t.activeCount.Load()),
		Queued:        int(t.queuedCount.Load()),
		TotalExecuted: t.totalExecuted.Load(),
		TotalRejected: t.rejectedCount.Load(),
	}
}

// ThrottleStats contains throttle counters.
type ThrottleStats struct {
	MaxConcurrent int
	MaxQueue      int
	Active        int
	Queued        int
	TotalExecuted int64
	TotalRejected int64
}
