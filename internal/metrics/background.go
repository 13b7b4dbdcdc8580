package metrics

import (
	"log/slog"
	"sync"
	"time"
)

// Publisher receives recorder aggregates on an interval.
type Publisher interface {
	PublishAggregates(operation string, agg Aggregates)
	Close() error
}

// BackgroundPublisher periodically pushes per-operation aggregates from a
// Recorder to a Publisher.
type BackgroundPublisher struct {
	recorder  *Recorder
	publisher Publisher
	logger    *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewBackgroundPublisher starts the publish loop.
func NewBackgroundPublisher(recorder *Recorder, publisher Publisher, interval time.Duration, logger *slog.Logger) *BackgroundPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	bp := &BackgroundPublisher{
		recorder:  recorder,
		publisher: publisher,
		logger:    logger.With("component", "metrics-publisher"),
		stopCh:    make(chan struct{}),
	}

	bp.wg.Add(1)
	go bp.loop(interval)

	return bp
}

func (bp *BackgroundPublisher) loop(interval time.Duration) {
	defer bp.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-bp.stopCh:
			return
		case <-ticker.C:
			bp.publishOnce()
		}
	}
}

func (bp *BackgroundPublisher) publishOnce() {
	for _, op := range bp.recorder.Operations() {
		bp.publisher.PublishAggregates(op, bp.recorder.Averages(op))
	}
}

// Stop halts the loop and closes the publisher.
func (bp *BackgroundPublisher) Stop() {
	bp.once.Do(func() {
		close(bp.stopCh)
		bp.wg.Wait()
		if err := bp.publisher.Close(); err != nil {
			bp.logger.Warn("publisher close failed", "error", err)
		}
	})
}
