package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimit interface {
	Allow(key string) bool
	RetryAfter(key string) time.Duration
	Prune() int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter gives every key its own token bucket holding maxRequests
// tokens that refill evenly over window.
type KeyedLimiter struct {
	limit   rate.Limit
	burst   int
	window  time.Duration
	entries map[string]*entry
	mutex   sync.Mutex
	now     func() time.Time
}

type Option func(*KeyedLimiter)

func WithClock(now func() time.Time) Option {
	return func(rl *KeyedLimiter) { rl.now = now }
}

func New(maxRequests int, window time.Duration, opts ...Option) *KeyedLimiter {
	limit := rate.Inf
	if window > 0 {
		limit = rate.Limit(float64(maxRequests) / window.Seconds())
	}
	rl := &KeyedLimiter{
		limit:   limit,
		burst:   maxRequests,
		window:  window,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

func (rl *KeyedLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	return rl.entry(key, now).limiter.AllowN(now, 1)
}

// RetryAfter is how long key must wait for its next token. Zero when a
// request would be allowed now.
func (rl *KeyedLimiter) RetryAfter(key string) time.Duration {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	e, ok := rl.entries[key]
	if !ok || rl.limit == rate.Inf {
		return 0
	}
	if rl.limit == 0 {
		return rl.window
	}
	tokens := e.limiter.TokensAt(rl.now())
	if tokens >= 1 {
		return 0
	}
	seconds := (1 - tokens) / float64(rl.limit)
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
}

// Prune drops keys idle for longer than a window. Their buckets would be
// full again, so dropping them changes nothing for the next request.
func (rl *KeyedLimiter) Prune() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	removed := 0
	for key, e := range rl.entries {
		if now.Sub(e.lastSeen) > rl.window {
			delete(rl.entries, key)
			removed++
		}
	}
	return removed
}

func (rl *KeyedLimiter) entry(key string, now time.Time) *entry {
	e := rl.entries[key]
	if e == nil {
		e = &entry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.entries[key] = e
	}
	e.lastSeen = now
	return e
}
