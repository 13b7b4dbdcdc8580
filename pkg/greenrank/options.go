package greenrank

import (
	"log/slog"

	"github.com/ecoloop/greenrank/internal/hybrid"
)

// Option customizes service construction.
type Option func(*hybrid.Options)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *hybrid.Options) {
		o.Logger = logger
	}
}

// WithRealSource replaces the HTTP client for the authoritative backend.
func WithRealSource(src RecordSource) Option {
	return func(o *hybrid.Options) {
		o.Real = src
	}
}

// WithSyntheticSource replaces the canned dataset.
func WithSyntheticSource(src RecordSource) Option {
	return func(o *hybrid.Options) {
		o.Synthetic = src
	}
}

// WithNotifier sets the receiver for user-facing failure notices.
func WithNotifier(n Notifier) Option {
	return func(o *hybrid.Options) {
		o.Notifier = n
	}
}

// WithSnapshotSink injects a snapshot store, overriding the config-driven
// Redis sink. Useful for tests and for embedders with their own durable
// store.
func WithSnapshotSink(sink SnapshotSink) Option {
	return func(o *hybrid.Options) {
		o.Sink = sink
	}
}

// WithPublisher replaces the StatsD metrics publisher.
func WithPublisher(p Publisher) Option {
	return func(o *hybrid.Options) {
		o.Publisher = p
	}
}

// WithSerializer replaces the JSON payload serializer.
func WithSerializer(s Serializer) Option {
	return func(o *hybrid.Options) {
		o.Serializer = s
	}
}
