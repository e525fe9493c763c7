package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration
type Config struct {
	RequestsPerSecond float64 `json:"requestsPerSecond" mapstructure:"requests_per_second"`
	Burst             int     `json:"burst" mapstructure:"burst"`
	MaxRetries        int     `json:"maxRetries" mapstructure:"max_retries"`
	InitialBackoffMs  int     `json:"initialBackoffMs" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int     `json:"maxBackoffMs" mapstructure:"max_backoff_ms"`
}

// DefaultConfig returns the default rate limit configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		Burst:             1,
		MaxRetries:        3,
		InitialBackoffMs:  100,
		MaxBackoffMs:      30000,
	}
}

// RateLimiter spaces outgoing requests to one upstream with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter with the given config.
// A non-positive rate disables limiting.
func NewRateLimiter(config Config) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(limitFor(config), burstFor(config)),
	}
}

// Throttle waits until the next request may be sent or ctx is done.
func (r *RateLimiter) Throttle(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

func limitFor(config Config) rate.Limit {
	if config.RequestsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(config.RequestsPerSecond)
}

func burstFor(config Config) int {
	if config.Burst < 1 {
		return 1
	}
	return config.Burst
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
