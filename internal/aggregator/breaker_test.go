package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestBreaker(cfg BreakerConfig) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("zepto", cfg, nil, nil)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	cb, now := newTestBreaker(BreakerConfig{Enabled: true, MaxFailures: 3, ResetTimeout: time.Minute, HalfOpenMaxCalls: 2})
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		assert.True(t, cb.Allow(ctx))
		cb.RecordFailure(boom)
	}
	assert.Equal(t, BreakerClosed, cb.State())

	cb.RecordFailure(boom)
	assert.Equal(t, BreakerOpen, cb.State())
	assert.False(t, cb.Allow(ctx))

	*now = now.Add(time.Minute)
	assert.True(t, cb.Allow(ctx))
	assert.Equal(t, BreakerHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, BreakerHalfOpen, cb.State())
	cb.RecordSuccess()
	assert.Equal(t, BreakerClosed, cb.State())
	assert.Equal(t, 0, cb.FailureCount())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(BreakerConfig{Enabled: true, MaxFailures: 1, ResetTimeout: time.Second, HalfOpenMaxCalls: 1})
	ctx := context.Background()

	cb.RecordFailure(errors.New("boom"))
	assert.Equal(t, BreakerOpen, cb.State())

	*now = now.Add(time.Second)
	assert.True(t, cb.Allow(ctx))
	cb.RecordFailure(errors.New("again"))
	assert.Equal(t, BreakerOpen, cb.State())
	assert.False(t, cb.Allow(ctx))
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(BreakerConfig{Enabled: true, MaxFailures: 2, ResetTimeout: time.Minute, HalfOpenMaxCalls: 1})

	cb.RecordFailure(errors.New("boom"))
	cb.RecordSuccess()
	cb.RecordFailure(errors.New("boom"))
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb, _ := newTestBreaker(BreakerConfig{Enabled: false, MaxFailures: 1})

	for i := 0; i < 5; i++ {
		cb.RecordFailure(errors.New("boom"))
	}
	assert.True(t, cb.Allow(context.Background()))
	assert.Equal(t, BreakerClosed, cb.State())

	snap := cb.Snapshot()
	assert.Equal(t, 5, snap.FailureCount)
	assert.NotNil(t, snap.LastFailureTime)
}

func TestBreakerState_MarshalText(t *testing.T) {
	b, err := BreakerHalfOpen.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "half-open", string(b))
}
