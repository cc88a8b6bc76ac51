package rate

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter limits operations based on a provided key.
type Limiter interface {
	Allow(key string) bool
}

// LimiterCtor allows the creation of a Limiter using a provided rate.
type LimiterCtor func(perSecond uint64) Limiter

type localRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocalRateLimiter returns an in memory limiter that allows perSecond
// operations per key, with bursts of up to perSecond operations. A zero rate
// never limits.
func NewLocalRateLimiter(perSecond uint64) Limiter {
	if perSecond == 0 {
		return &NoLimiter{}
	}

	return &localRateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    int(perSecond),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow implements limiter.Allow.
func (l *localRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// NoLimiter never limits operations
type NoLimiter struct {
}

// Allow implements limiter.Allow.
func (n *NoLimiter) Allow(key string) bool {
	return true
}
