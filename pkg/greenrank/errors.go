package greenrank

import "github.com/ecoloop/greenrank/internal/types"

// Sentinel errors surfaced by the service.
var (
	// ErrNoData marks a total failure: no source, no cache, and no
	// fallback strategy could produce data for the request.
	ErrNoData = types.ErrNoData
	// ErrClosed is returned by every operation after Close.
	ErrClosed = types.ErrClosed
	// ErrThrottleFull is returned when the request throttle's wait queue
	// is at capacity.
	ErrThrottleFull = types.ErrThrottleFull
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = types.ErrInvalidConfig
)

// IsNoData reports whether err means "no data available", as opposed to a
// genuinely empty result set (which is not an error).
func IsNoData(err error) bool {
	return types.IsNoData(err)
}
