package aggregator

import "time"

// Config holds the configuration for the aggregation orchestrator.
type Config struct {
	// AdapterTimeout bounds every single adapter call.
	AdapterTimeout time.Duration `mapstructure:"adapter_timeout"`

	// MaxConcurrency caps concurrently running adapters. Zero means no cap.
	MaxConcurrency int `mapstructure:"max_concurrency"`

	// MaxResultsPerPlatform truncates what one adapter may contribute.
	MaxResultsPerPlatform int `mapstructure:"max_results_per_platform"`

	// Fallback toggles
	CityFallback      bool `mapstructure:"city_fallback"`
	NearbyRetry       bool `mapstructure:"nearby_retry"`
	SyntheticFallback bool `mapstructure:"synthetic_fallback"`

	Breaker BreakerConfig `mapstructure:"breaker"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		AdapterTimeout:        60 * time.Second,
		MaxConcurrency:        0,
		MaxResultsPerPlatform: 5,
		CityFallback:          true,
		NearbyRetry:           true,
		SyntheticFallback:     true,
		Breaker:               DefaultBreakerConfig(),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.AdapterTimeout <= 0 {
		return ErrInvalidConfig{Field: "adapter_timeout", Reason: "must be positive"}
	}
	if c.MaxConcurrency < 0 {
		return ErrInvalidConfig{Field: "max_concurrency", Reason: "must be non-negative"}
	}
	if c.MaxResultsPerPlatform < 1 {
		return ErrInvalidConfig{Field: "max_results_per_platform", Reason: "must be at least 1"}
	}
	if c.Breaker.Enabled {
		if c.Breaker.MaxFailures < 1 {
			return ErrInvalidConfig{Field: "breaker.max_failures", Reason: "must be at least 1"}
		}
		if c.Breaker.ResetTimeout <= 0 {
			return ErrInvalidConfig{Field: "breaker.reset_timeout", Reason: "must be positive"}
		}
		if c.Breaker.HalfOpenMaxCalls < 1 {
			return ErrInvalidConfig{Field: "breaker.half_open_max_calls", Reason: "must be at least 1"}
		}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
