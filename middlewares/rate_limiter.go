package middlewares

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/utils"
	"golang.org/x/time/rate"
)

// RateLimiter allows at most rate requests per IP within a sliding interval.
type RateLimiter struct {
	rate     int
	interval time.Duration
	ips      map[string][]time.Time
	swept    time.Time
	mu       sync.Mutex
}

func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		interval: interval,
		ips:      make(map[string][]time.Time),
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			utils.AbortWithError(c, http.StatusTooManyRequests, errors.New("too many requests"))
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.interval)
	if now.Sub(rl.swept) >= rl.interval {
		rl.sweep(cutoff)
		rl.swept = now
	}

	valid := rl.ips[ip][:0]
	for _, t := range rl.ips[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) >= rl.rate {
		rl.ips[ip] = valid
		return false
	}
	rl.ips[ip] = append(valid, now)
	return true
}

// sweep drops clients with no request after cutoff.
func (rl *RateLimiter) sweep(cutoff time.Time) {
	for ip, times := range rl.ips {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(rl.ips, ip)
		}
	}
}

// StrictRateLimiter is a token bucket per IP for credential endpoints.
type StrictRateLimiter struct {
	every time.Duration
	burst int

	mu       sync.Mutex
	limiters map[string]*strictEntry
	swept    time.Time
}

type strictEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewStrictRateLimiter(every time.Duration, burst int) *StrictRateLimiter {
	return &StrictRateLimiter{every: every, burst: burst, limiters: make(map[string]*strictEntry)}
}

// idle is how long a bucket takes to refill completely; an entry unseen for
// that long is equivalent to a fresh one.
func (sl *StrictRateLimiter) idle() time.Duration {
	return sl.every * time.Duration(sl.burst)
}

func (sl *StrictRateLimiter) limiter(ip string, now time.Time) *rate.Limiter {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if now.Sub(sl.swept) >= sl.idle() {
		for key, e := range sl.limiters {
			if now.Sub(e.lastSeen) >= sl.idle() {
				delete(sl.limiters, key)
			}
		}
		sl.swept = now
	}

	e, ok := sl.limiters[ip]
	if !ok {
		e = &strictEntry{limiter: rate.NewLimiter(rate.Every(sl.every), sl.burst)}
		sl.limiters[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (sl *StrictRateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sl.limiter(c.ClientIP(), time.Now()).Allow() {
			utils.AbortWithError(c, http.StatusTooManyRequests, errors.New("too many attempts, please wait"))
			return
		}
		c.Next()
	}
}
