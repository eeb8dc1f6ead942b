package ai

import (
	"context"

	"golang.org/x/time/rate"

	"minerva/pkg/errors"
)

// RateLimiter caps outbound request rate to one provider. Every chat call
// waits on it before leaving the process, so a burst of parallel agent
// invocations cannot trip the provider's server-side limits.
type RateLimiter struct {
	limiter  *rate.Limiter
	provider ProviderName
	perMin   float64
}

// NewRateLimiter creates a limiter allowing reqPerMinute requests with the
// given burst. A burst of zero defaults to 10% of the per-minute rate.
func NewRateLimiter(provider ProviderName, reqPerMinute float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = int(reqPerMinute / 10)
		if burst < 1 {
			burst = 1
		}
	}

	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(reqPerMinute/60.0), burst),
		provider: provider,
		perMin:   reqPerMinute,
	}
}

// Wait blocks until a slot is available or the context is cancelled.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter wait cancelled for provider %s", l.provider)
	}
	return nil
}

// Allow reports whether a request can proceed without blocking, consuming a
// slot if it can.
func (l *RateLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns the configured requests-per-minute rate.
func (l *RateLimiter) Limit() float64 {
	return l.perMin
}
