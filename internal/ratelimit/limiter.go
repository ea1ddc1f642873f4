// Package ratelimit caps the global request-submission rate across sessions.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter shared by all session drivers.
// A nil *Limiter applies no limit.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing rps submissions per second.
// Returns nil when rps <= 0, meaning no rate limiting.
func NewLimiter(rps int) *Limiter {
	if rps <= 0 {
		return nil
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Wait blocks until the next submission is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
