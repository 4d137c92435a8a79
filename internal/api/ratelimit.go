package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipRateLimiter tracks a token bucket per client IP, evicting entries for
// clients that have been idle longer than the configured window
type ipRateLimiter struct {
	mu sync.Mutex

	entries map[string]*limiterEntry

	limit  rate.Limit
	burst  int
	window time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newIPRateLimiter allows requests per window for each client IP
func newIPRateLimiter(requests int, window time.Duration) *ipRateLimiter {
	return &ipRateLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   requests,
		window:  window,
	}
}

// Allow reports whether the client may proceed, counting this request
func (l *ipRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.evictStale(now)

	entry, ok := l.entries[ip]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(l.limit, l.burst),
		}
		l.entries[ip] = entry
	}

	entry.lastSeen = now

	return entry.limiter.Allow()
}

func (l *ipRateLimiter) evictStale(now time.Time) {
	for ip, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.window {
			delete(l.entries, ip)
		}
	}
}
