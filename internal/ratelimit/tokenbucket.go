package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// entry is one identity's bucket and when it was last consulted.
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles submissions per bound identity with a token bucket
// each. It implements smpp.SubmitLimiter.
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*entry
}

// NewRateLimiter creates a limiter allowing perSecond submits per identity
// with the given burst. A burst below one is raised to one.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		buckets: make(map[string]*entry),
	}
}

// Allow consumes a token for identity at now if one is available.
func (rl *RateLimiter) Allow(identity string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.buckets[identity]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[identity] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Tokens returns the tokens currently available to identity.
func (rl *RateLimiter) Tokens(identity string, now time.Time) float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.buckets[identity]
	if !ok {
		return float64(rl.burst)
	}
	return e.limiter.TokensAt(now)
}

// Cleanup drops buckets not consulted within maxAge of now.
func (rl *RateLimiter) Cleanup(maxAge time.Duration, now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for identity, e := range rl.buckets {
		if now.Sub(e.lastSeen) > maxAge {
			delete(rl.buckets, identity)
			removed++
		}
	}
	return removed
}
