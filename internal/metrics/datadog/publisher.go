// Package datadog provides a DataDog StatsD publisher for recorder
// aggregates.
package datadog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/metrics"
)

// Publisher implements metrics.Publisher on the DataDog StatsD client.
type Publisher struct {
	client *statsd.Client
	logger *slog.Logger
}

// NewPublisher creates a StatsD publisher from config. When StatsD is not
// enabled it returns a NoOpPublisher instead.
func NewPublisher(cfg config.StatsDConfig, logger *slog.Logger) (metrics.Publisher, error) {
	if !cfg.Enabled {
		return &NoOpPublisher{}, nil
	}

	if logger == nil {
		logger = slog.Default()
	}

	addr := fmt.Sprintf("%s:%d", cfg.AgentHost, cfg.Port)

	client, err := statsd.New(addr,
		statsd.WithNamespace(cfg.Prefix+"."),
		statsd.WithTags(cfg.Tags),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client: %w", err)
	}

	logger.Info("statsd publisher initialized", "address", addr, "prefix", cfg.Prefix)

	return &Publisher{
		client: client,
		logger: logger.With("component", "statsd"),
	}, nil
}

// PublishAggregates pushes one operation's aggregates as gauges.
func (p *Publisher) PublishAggregates(operation string, agg metrics.Aggregates) {
	tags := []string{"operation:" + operation}

	p.send("calls", float64(agg.CallCount), tags)
	p.send("duration_ms", float64(agg.MeanDuration)/float64(time.Millisecond), tags)
	p.send("payload_bytes", agg.MeanPayloadBytes, tags)
	p.send("cache_hit_rate", agg.CacheHitRate, tags)
}

func (p *Publisher) send(name string, value float64, tags []string) {
	if err := p.client.Gauge(name, value, tags, 1); err != nil {
		p.logger.Debug("statsd gauge failed", "metric", name, "error", err)
	}
}

// Close flushes and closes the StatsD client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

var _ metrics.Publisher = (*Publisher)(nil)

// NoOpPublisher discards all metrics.
type NoOpPublisher struct{}

func (p *NoOpPublisher) PublishAggregates(string, metrics.Aggregates) {}
func (p *NoOpPublisher) Close() error { return nil }

var _ metrics.Publisher = (*NoOpPublisher)(nil)
