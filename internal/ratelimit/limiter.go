// Package ratelimit keeps one token bucket per Telegram user.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/edgard/mathsolverbot/internal/config"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out per-user token buckets. A disabled Limiter allows everything.
type Limiter struct {
	enabled bool
	limit   rate.Limit
	burst   int
	now     func() time.Time

	mu    sync.Mutex
	users map[int64]*entry
}

// New creates a Limiter from configuration.
func New(cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		enabled: cfg.Enabled,
		limit:   rate.Limit(cfg.Rate),
		burst:   cfg.Burst,
		now:     time.Now,
		users:   make(map[int64]*entry),
	}
}

// Allow reports whether userID may perform one more request now.
func (l *Limiter) Allow(userID int64) bool {
	if l == nil || !l.enabled {
		return true
	}
	now := l.now()

	l.mu.Lock()
	e, ok := l.users[userID]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.users[userID] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Cleanup drops buckets of users idle for longer than maxIdle and returns
// how many were removed.
func (l *Limiter) Cleanup(maxIdle time.Duration) int {
	if l == nil {
		return 0
	}
	cutoff := l.now().Add(-maxIdle)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, e := range l.users {
		if e.lastSeen.Before(cutoff) {
			delete(l.users, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked users.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}
