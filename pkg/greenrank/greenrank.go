package greenrank

import (
	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/hybrid"
)

// New creates a data service with default configuration.
func New(opts ...Option) (Service, error) {
	return NewFromConfig(config.DefaultConfig(), opts...)
}

// NewFromConfig creates a data service from configuration.
func NewFromConfig(cfg *Config, opts ...Option) (Service, error) {
	serviceOpts := &hybrid.Options{}
	for _, opt := range opts {
		opt(serviceOpts)
	}
	return hybrid.NewService(cfg, serviceOpts)
}

// NewFromFile creates a data service from a JSON config file with
// environment overrides applied.
func NewFromFile(path string, opts ...Option) (Service, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// DefaultConfig returns a configuration that can be modified before
// creating a service.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *Config {
	return config.ForTesting()
}
