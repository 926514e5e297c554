// Package ratelimit provides a per-key sliding window request limiter.
// The check is independent of authentication state so it can gate
// anonymous endpoints such as challenge issuance.
package ratelimit

import (
	"sync"
	"time"

	"github.com/layer-3/gatekeeper/core"
)

// Limiter counts recent requests per key inside a trailing window.
// Windows are created lazily on first sight of a key.
type Limiter struct {
	mu          sync.Mutex
	windows     map[string]*window
	windowSize  time.Duration
	maxRequests int
	nowFunc     func() time.Time // for tests; defaults to time.Now
}

type window struct {
	timestamps []time.Time
	resetTime  time.Time
}

// NewLimiter creates a limiter admitting maxRequests per windowSize per key.
func NewLimiter(windowSize time.Duration, maxRequests int) *Limiter {
	if windowSize <= 0 {
		windowSize = time.Minute
	}
	if maxRequests <= 0 {
		maxRequests = 60
	}
	return &Limiter{
		windows:     make(map[string]*window),
		windowSize:  windowSize,
		maxRequests: maxRequests,
		nowFunc:     time.Now,
	}
}

// CheckLimit records a request for key and reports whether it is
// admitted. The read-modify-write of the window is atomic with respect
// to concurrent requests for the same key.
func (l *Limiter) CheckLimit(key string) core.RateLimitResult {
	now := l.nowFunc()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		w = &window{resetTime: now.Add(l.windowSize)}
		l.windows[key] = w
	}

	if !now.Before(w.resetTime) {
		w.timestamps = w.timestamps[:0]
		w.resetTime = now.Add(l.windowSize)
	}

	// Prune timestamps outside the trailing window.
	cutoff := now.Add(-l.windowSize)
	live := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	w.timestamps = live

	remaining := l.maxRequests - len(w.timestamps)
	if remaining <= 0 {
		return core.RateLimitResult{
			Allowed:   false,
			Limit:     l.maxRequests,
			Remaining: 0,
			ResetAt:   w.resetTime,
		}
	}

	w.timestamps = append(w.timestamps, now)
	return core.RateLimitResult{
		Allowed:   true,
		Limit:     l.maxRequests,
		Remaining: remaining - 1,
		ResetAt:   w.resetTime,
	}
}

// Sweep drops windows whose reset time has passed. Call it periodically
// to bound memory across many distinct keys.
func (l *Limiter) Sweep() {
	now := l.nowFunc()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.After(w.resetTime) {
			delete(l.windows, key)
		}
	}
}
