package service

import (
	"sync"
	"time"
)

// RateLimiter admits requests per caller under a sliding window: at most
// limit requests in any trailing window. Timestamps older than the window
// are pruned on every check, and an admitted request is recorded under the
// same lock so concurrent checks for one caller cannot double-admit.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	callers map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		callers: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether the caller may proceed and, if so, records the
// request against the window.
func (r *RateLimiter) Allow(callerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)

	recent := r.callers[callerID][:0]
	for _, ts := range r.callers[callerID] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= r.limit {
		r.callers[callerID] = recent
		return false
	}

	r.callers[callerID] = append(recent, now)
	return true
}

// Remaining returns how many requests the caller has left in the current
// window. Informational only, no admission side effect.
func (r *RateLimiter) Remaining(callerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.window)
	count := 0
	for _, ts := range r.callers[callerID] {
		if ts.After(cutoff) {
			count++
		}
	}
	if count >= r.limit {
		return 0
	}
	return r.limit - count
}
