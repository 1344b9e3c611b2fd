// Package ratelimit throttles outbound calls to public relays and DNS
// resolvers. The delay between candidate validations is intentional
// backpressure, not an oversight.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter struct {
	limiter      *rate.Limiter
	minHostDelay time.Duration

	mu          sync.Mutex
	lastRequest map[string]time.Time
}

type Config struct {
	// RequestsPerSecond bounds the global outbound request rate.
	RequestsPerSecond float64
	// BurstSize allows brief bursts above the steady rate.
	BurstSize int
	// MinHostDelay is the minimum spacing between requests to one host.
	MinHostDelay time.Duration
}

// ValidationConfig returns the conservative limits used while validating
// discovery candidates against public resolvers.
func ValidationConfig() Config {
	return Config{
		RequestsPerSecond: 5.0,
		BurstSize:         2,
		MinHostDelay:      200 * time.Millisecond,
	}
}

func NewLimiter(cfg Config) *Limiter {
	return &Limiter{
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		minHostDelay: cfg.MinHostDelay,
		lastRequest:  make(map[string]time.Time),
	}
}

// Wait blocks until the global rate limit admits another request.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// WaitForHost blocks for the global limit plus the per-host minimum delay.
func (l *Limiter) WaitForHost(ctx context.Context, host string) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	last, seen := l.lastRequest[host]
	now := time.Now()
	l.lastRequest[host] = now
	l.mu.Unlock()

	if !seen {
		return nil
	}

	if wait := l.minHostDelay - now.Sub(last); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
