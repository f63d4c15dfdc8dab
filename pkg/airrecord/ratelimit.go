package airrecord

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket whose capacity equals its per-second rate.
// It is safe for concurrent use; waiters are served in arrival order. A nil
// *RateLimiter never blocks.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a full bucket refilling at requestsPerSecond.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	burst := int(math.Ceil(requestsPerSecond))
	if burst < 1 {
		burst = 1
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Acquire blocks until a token is available and consumes it. It only fails
// when ctx ends first.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}

	err := l.limiter.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	return nil
}

// Rate returns the refill rate in tokens per second.
func (l *RateLimiter) Rate() float64 {
	if l == nil {
		return math.Inf(1)
	}

	return float64(l.limiter.Limit())
}

// Burst returns the bucket capacity.
func (l *RateLimiter) Burst() int {
	if l == nil {
		return 0
	}

	return l.limiter.Burst()
}
