package http

import (
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds the per-provider retry budget and backoff shape.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	JitterFraction float64
}

// DefaultRetryConfig returns the standard policy: 3 attempts per provider,
// 1s doubling backoff capped at 10s, plus 0-25% jitter of the capped value.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// Backoff calculates the wait after a failed attempt (0-based):
// min(initial * multiplier^attempt, max) plus random jitter in
// [0, JitterFraction) of the capped value. Jitter avoids synchronized retry
// storms across concurrent requests hitting the same provider.
func Backoff(attempt int, config RetryConfig) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.Multiplier, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}
	jitter := rand.Float64() * config.JitterFraction * base
	return time.Duration(base + jitter)
}
