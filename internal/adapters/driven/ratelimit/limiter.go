// Package ratelimit provides client-side throttling and bounded retry
// for external AI service calls.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration for a service client.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultConfig is a conservative default suitable for paid API tiers.
var DefaultConfig = Config{RequestsPerSecond: 5.0, BurstSize: 5}

// Limiter throttles outbound requests with a token bucket and honours
// server-advertised backoff after 429 responses.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewLimiter creates a limiter with the given configuration. Zero values
// fall back to DefaultConfig.
func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultConfig.BurstSize
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate
// limit. It also respects any backoff period set by RecordRateLimitError.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return l.limiter.Wait(ctx)
}

// RecordRateLimitError records a 429 response and sets a backoff period.
func (l *Limiter) RecordRateLimitError(retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = 30 * time.Second
	}

	l.retryAt = time.Now().Add(retryAfter)
}
