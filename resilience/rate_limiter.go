package resilience

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a request cannot get a token before its
// context deadline.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig paces requests on one client.
type RateLimiterConfig struct {
	// Rate is requests per second.
	Rate float64 `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	// Burst is how many requests may go out back to back.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// ApplyDefaults fills 10 req/s and a burst equal to one second of rate.
func (c *RateLimiterConfig) ApplyDefaults() {
	if c.Rate <= 0 {
		c.Rate = 10
	}
	if c.Burst <= 0 {
		c.Burst = max(int(c.Rate), 1)
	}
}

// RateLimiter is a token bucket in front of a named client.
type RateLimiter struct {
	name    string
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter for the client called name.
func NewRateLimiter(name string, cfg RateLimiterConfig) *RateLimiter {
	cfg.ApplyDefaults()
	return &RateLimiter{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
	}
}

// Wait blocks until a token is available. A cancelled context returns its
// own error; a token that cannot arrive before the deadline returns
// ErrRateLimited without waiting.
func (r *RateLimiter) Wait(ctx context.Context) error {
	err := r.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: client %s: %v", ErrRateLimited, r.name, err)
}

// Allow takes a token if one is available right now.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Rate returns the configured requests per second.
func (r *RateLimiter) Rate() float64 { return float64(r.limiter.Limit()) }

// Burst returns the bucket size.
func (r *RateLimiter) Burst() int { return r.limiter.Burst() }
