package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter implements per-agent dispatch rate limiting so a bursty
// conversation cannot hammer one verifier
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter
func NewLimiter(dispatchesPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(dispatchesPerSecond),
		defaultBurst: burst,
	}
}

// Wait waits for rate limit clearance for the named agent
func (l *Limiter) Wait(ctx context.Context, agent string) error {
	return l.getLimiter(agent).Wait(ctx)
}

// Allow checks if a dispatch is allowed without waiting
func (l *Limiter) Allow(agent string) bool {
	return l.getLimiter(agent).Allow()
}

// getLimiter returns the rate limiter for an agent
func (l *Limiter) getLimiter(agent string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[agent]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[agent]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[agent] = limiter

	return limiter
}

// SetAgentRate sets a custom rate limit for a specific agent
func (l *Limiter) SetAgentRate(agent string, dispatchesPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[agent] = rate.NewLimiter(rate.Limit(dispatchesPerSecond), burst)
}
