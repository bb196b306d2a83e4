package httpx

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window.
	RequestsPerWindow int
	Window            time.Duration
	// Burst allows for temporary bursts above the rate limit.
	Burst int
}

const limiterCleanupEvery = 5 * time.Minute

// KeyedLimiter keeps one token bucket per key, e.g. per client IP.
type KeyedLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewKeyedLimiter builds a limiter from cfg. Non-positive values fall back
// to 5 requests per minute.
func NewKeyedLimiter(cfg RateLimitConfig) *KeyedLimiter {
	if cfg.RequestsPerWindow <= 0 {
		cfg.RequestsPerWindow = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerWindow
	}
	return &KeyedLimiter{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}
}

// Allow consumes one token for key. When the bucket is empty it reports
// false and how long until the next token.
func (l *KeyedLimiter) Allow(key string) (bool, time.Duration) {
	limiter := l.get(key)
	if limiter.Allow() {
		return true, 0
	}
	res := limiter.Reserve()
	delay := res.Delay()
	res.Cancel()
	return false, delay
}

func (l *KeyedLimiter) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	l.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops buckets that refilled completely; they have been idle.
func (l *KeyedLimiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) < limiterCleanupEvery {
		return
	}
	l.lastCleanup = time.Now()
	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}

// retryAfterSeconds rounds a delay up to whole seconds, at least 1.
func retryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}
