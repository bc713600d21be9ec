package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, IsRetryableStatus(429))
	assert.True(t, IsRetryableStatus(500))
	assert.True(t, IsRetryableStatus(503))
	assert.False(t, IsRetryableStatus(404))
	assert.False(t, IsRetryableStatus(200))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := Config{InitialBackoffMs: 100, MaxBackoffMs: 1000}

	d0 := CalculateBackoff(0, cfg)
	assert.GreaterOrEqual(t, d0, 100*time.Millisecond)
	assert.LessOrEqual(t, d0, 125*time.Millisecond)

	d2 := CalculateBackoff(2, cfg)
	assert.GreaterOrEqual(t, d2, 400*time.Millisecond)
	assert.LessOrEqual(t, d2, 500*time.Millisecond)

	capped := CalculateBackoff(10, cfg)
	assert.LessOrEqual(t, capped, 1250*time.Millisecond)
}

func TestCalculateRateLimitBackoff(t *testing.T) {
	cfg := Config{InitialBackoffMs: 100, MaxBackoffMs: 10000}

	retryAfter := "2"
	d := CalculateRateLimitBackoff(0, cfg, &retryAfter)
	assert.GreaterOrEqual(t, d, 2*time.Second)
	assert.Less(t, d, 3*time.Second)

	bad := "soon"
	d = CalculateRateLimitBackoff(1, cfg, &bad)
	assert.GreaterOrEqual(t, d, 300*time.Millisecond)
	assert.LessOrEqual(t, d, 375*time.Millisecond)
}

func TestFetchRetryError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &FetchRetryError{URL: "https://example.com", Attempts: 2, LastStatus: 503, LastError: cause}

	assert.Equal(t, "failed to fetch https://example.com after 2 attempts (HTTP 503): connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Minute), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}

func TestRateLimiter_Unlimited(t *testing.T) {
	rl := NewRateLimiter(Config{RequestsPerSecond: 0})
	for i := 0; i < 10; i++ {
		assert.NoError(t, rl.Throttle(context.Background()))
	}
}

func TestWithOverrides(t *testing.T) {
	retries := 2
	cfg := WithOverrides(PartialConfig{MaxRetries: &retries})
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, DefaultConfig().RequestsPerSecond, cfg.RequestsPerSecond)
}
