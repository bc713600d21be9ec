package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kosarica/price-aggregator/internal/telemetry"
)

// BreakerState is the state of a platform circuit breaker.
type BreakerState int

const (
	// BreakerClosed lets adapter calls through.
	BreakerClosed BreakerState = iota

	// BreakerOpen skips the platform without calling its adapter.
	BreakerOpen

	// BreakerHalfOpen lets a limited number of probe calls through.
	BreakerHalfOpen
)

// String returns the string representation of the breaker state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s BreakerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// BreakerConfig holds configuration for the per-platform circuit breakers.
type BreakerConfig struct {
	// Enabled turns the breakers on. When off every adapter is always called.
	Enabled bool `mapstructure:"enabled"`

	// MaxFailures is the number of consecutive failures before opening the circuit.
	MaxFailures int `mapstructure:"max_failures"`

	// ResetTimeout is how long an open circuit waits before letting a probe through.
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`

	// HalfOpenMaxCalls is the number of successful probes needed to close again.
	HalfOpenMaxCalls int `mapstructure:"half_open_max_calls"`
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MaxFailures:      5,
		ResetTimeout:     2 * time.Minute,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker tracks consecutive adapter failures for one platform.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	lastStateChange time.Time
	config          BreakerConfig
	metrics         *MetricsRecorder
	logger          *zerolog.Logger
	platform        string
	now             func() time.Time
}

// NewCircuitBreaker creates a closed breaker for a platform.
func NewCircuitBreaker(platform string, config BreakerConfig, metrics *MetricsRecorder, logger *zerolog.Logger) *CircuitBreaker {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = DefaultBreakerConfig().MaxFailures
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}

	cb := &CircuitBreaker{
		state:    BreakerClosed,
		config:   config,
		metrics:  metrics,
		logger:   logger,
		platform: platform,
		now:      time.Now,
	}
	cb.lastStateChange = cb.now()
	cb.metrics.RecordBreakerState(platform, BreakerClosed)
	return cb
}

// Allow reports whether an adapter call may go ahead.
func (cb *CircuitBreaker) Allow(ctx context.Context) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.config.Enabled {
		return true
	}

	now := cb.now()

	switch cb.state {
	case BreakerClosed:
		return true

	case BreakerOpen:
		if now.Sub(cb.lastFailureTime) >= cb.config.ResetTimeout {
			cb.transitionTo(BreakerHalfOpen, now)
			cb.logger.Info().
				Str("platform", cb.platform).
				Str("request_id", telemetry.RequestID(ctx)).
				Msg("Circuit breaker transitioning to half-open")
			return true
		}
		return false

	case BreakerHalfOpen:
		return cb.successCount < cb.config.HalfOpenMaxCalls

	default:
		return false
	}
}

// RecordSuccess records a call that completed, with or without records.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		cb.failureCount = 0

	case BreakerHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.HalfOpenMaxCalls {
			cb.transitionTo(BreakerClosed, cb.now())
			cb.logger.Info().
				Str("platform", cb.platform).
				Int("success_count", cb.successCount).
				Msg("Circuit breaker closing after successful recovery")
			cb.successCount = 0
			cb.failureCount = 0
		}
	}
}

// RecordFailure records an adapter error, timeout or panic.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	cb.failureCount++
	cb.lastFailureTime = now

	cb.logger.Debug().
		Err(err).
		Str("platform", cb.platform).
		Int("failure_count", cb.failureCount).
		Msg("Circuit breaker recording failure")

	if !cb.config.Enabled {
		return
	}

	switch cb.state {
	case BreakerClosed:
		if cb.failureCount >= cb.config.MaxFailures {
			cb.transitionTo(BreakerOpen, now)
			cb.logger.Warn().
				Str("platform", cb.platform).
				Int("failure_count", cb.failureCount).
				Dur("reset_timeout", cb.config.ResetTimeout).
				Msg("Circuit breaker opening after max failures")
		}

	case BreakerHalfOpen:
		cb.transitionTo(BreakerOpen, now)
		cb.logger.Warn().
			Str("platform", cb.platform).
			Msg("Circuit breaker re-opening after failure in half-open state")
		cb.successCount = 0
	}
}

func (cb *CircuitBreaker) transitionTo(newState BreakerState, now time.Time) {
	cb.state = newState
	cb.lastStateChange = now
	cb.metrics.RecordBreakerState(cb.platform, newState)
}

// State returns the current state of the breaker.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the current consecutive failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// Reset forces the breaker back to closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transitionTo(BreakerClosed, cb.now())
	cb.failureCount = 0
	cb.successCount = 0

	cb.logger.Info().
		Str("platform", cb.platform).
		Msg("Circuit breaker manually reset to closed state")
}

// BreakerSnapshot is a point-in-time view of one breaker.
type BreakerSnapshot struct {
	Platform        string       `json:"platform"`
	State           BreakerState `json:"state"`
	FailureCount    int          `json:"failureCount"`
	LastFailureTime *time.Time   `json:"lastFailureTime,omitempty"`
	LastStateChange time.Time    `json:"lastStateChange"`
}

// Snapshot returns the breaker's current state.
func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s := BreakerSnapshot{
		Platform:        cb.platform,
		State:           cb.state,
		FailureCount:    cb.failureCount,
		LastStateChange: cb.lastStateChange,
	}
	if !cb.lastFailureTime.IsZero() {
		t := cb.lastFailureTime
		s.LastFailureTime = &t
	}
	return s
}
