package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Config holds outbound rate limiting and retry configuration
type Config struct {
	RequestsPerSecond int `json:"requestsPerSecond" mapstructure:"requests_per_second"`
	MaxRetries        int `json:"maxRetries" mapstructure:"max_retries"`
	InitialBackoffMs  int `json:"initialBackoffMs" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int `json:"maxBackoffMs" mapstructure:"max_backoff_ms"`
}

// DefaultConfig returns the default rate limit configuration. Retries are
// off by default: a failed platform is retried only through the city fallback.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		MaxRetries:        0,
		InitialBackoffMs:  100,
		MaxBackoffMs:      30000,
	}
}

// WithOverrides returns the default config with the given overrides applied
func WithOverrides(overrides PartialConfig) Config {
	cfg := DefaultConfig()
	if overrides.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *overrides.RequestsPerSecond
	}
	if overrides.MaxRetries != nil {
		cfg.MaxRetries = *overrides.MaxRetries
	}
	if overrides.InitialBackoffMs != nil {
		cfg.InitialBackoffMs = *overrides.InitialBackoffMs
	}
	if overrides.MaxBackoffMs != nil {
		cfg.MaxBackoffMs = *overrides.MaxBackoffMs
	}
	return cfg
}

// PartialConfig allows partial configuration overrides
type PartialConfig struct {
	RequestsPerSecond *int `json:"requestsPerSecond,omitempty"`
	MaxRetries        *int `json:"maxRetries,omitempty"`
	InitialBackoffMs  *int `json:"initialBackoffMs,omitempty"`
	MaxBackoffMs      *int `json:"maxBackoffMs,omitempty"`
}

// RateLimiter paces outbound requests with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
	config  Config
}

// NewRateLimiter creates a new rate limiter with the given config.
// A non-positive RequestsPerSecond disables throttling.
func NewRateLimiter(config Config) *RateLimiter {
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, 1),
		config:  config,
	}
}

// GetConfig returns the current configuration
func (r *RateLimiter) GetConfig() Config {
	return r.config
}

// Throttle blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Throttle(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
