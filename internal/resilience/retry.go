package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/types"
)

// Backoff re-invokes a failing operation with exponentially growing delays:
// baseDelay * 2^attempt, capped at maxDelay.
type Backoff struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int

	totalRetries atomic.Int64
	totalSuccess atomic.Int64
	totalFailure atomic.Int64
}

// NewBackoff creates a backoff policy from config, applying defaults for
// zero values.
func NewBackoff(cfg config.RetryConfig) *Backoff {
	b := &Backoff{
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
		maxAttempts: cfg.MaxAttempts,
	}
	if b.baseDelay <= 0 {
		b.baseDelay = 200 * time.Millisecond
	}
	if b.maxDelay <= 0 {
		b.maxDelay = 5 * time.Second
	}
	if b.maxAttempts <= 0 {
		b.maxAttempts = 3
	}
	return b
}

// Run executes fn up to maxAttempts times. maxAttempts <= 0 uses the
// configured default. Non-retryable errors (auth, validation) fail
// immediately; exhausting attempts returns the last error.
func (b *Backoff) Run(ctx context.Context, maxAttempts int, fn func(context.Context) (any, error)) (any, error) {
	if maxAttempts <= 0 {
		maxAttempts = b.maxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			b.totalRetries.Add(1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.delay(attempt)):
			}
		}

		result, err := fn(ctx)
		if err == nil {
			b.totalSuccess.Add(1)
			return result, nil
		}
		lastErr = err

		if !types.IsRetryable(err) {
			break
		}
	}

	b.totalFailure.Add(1)
	return nil, lastErr
}

// delay computes baseDelay * 2^attempt capped at maxDelay.
func (b *Backoff) delay(attempt int) time.Duration {
	d := b.baseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= b.maxDelay {
			return b.maxDelay
		}
	}
	return d
}

// Stats returns retry counters.
func (b *Backoff) Stats() (retries, success, failure int64) {
	return b.totalRetries.Load(), b.totalSuccess.Load(), b.totalFailure.Load()
}
