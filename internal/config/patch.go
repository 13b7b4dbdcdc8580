package config

import "time"

// Patch is a partial configuration update. Nil fields keep their current
// value. Structural settings (eviction policy, cache capacity, throttle
// width, buffer sizes) are fixed at construction and deliberately absent.
type Patch struct {
	CacheTTL         *time.Duration `json:"cacheTTL,omitempty"`
	RealWeight       *float64       `json:"realWeight,omitempty"`
	SyntheticWeight  *float64       `json:"syntheticWeight,omitempty"`
	FallbackEnabled  *bool          `json:"fallbackEnabled,omitempty"`
	RequestTimeout   *time.Duration `json:"requestTimeout,omitempty"`
	RetryBaseDelay   *time.Duration `json:"retryBaseDelay,omitempty"`
	RetryMaxAttempts *int           `json:"retryMaxAttempts,omitempty"`
}

// Apply returns a validated copy of cfg with the patch applied. The input
// is never mutated; an invalid patch fails here, before any fetch path can
// observe it.
func (p Patch) Apply(cfg *Config) (*Config, error) {
	next := *cfg

	if p.CacheTTL != nil {
		next.Cache.DefaultTTL = *p.CacheTTL
	}
	if p.RealWeight != nil {
		next.Merge.RealWeight = *p.RealWeight
	}
	if p.SyntheticWeight != nil {
		next.Merge.SyntheticWeight = *p.SyntheticWeight
	}
	if p.FallbackEnabled != nil {
		next.Fallback.Enabled = *p.FallbackEnabled
	}
	if p.RequestTimeout != nil {
		next.Source.RequestTimeout = *p.RequestTimeout
	}
	if p.RetryBaseDelay != nil {
		next.Retry.BaseDelay = *p.RetryBaseDelay
	}
	if p.RetryMaxAttempts != nil {
		next.Retry.MaxAttempts = *p.RetryMaxAttempts
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &next, nil
}
