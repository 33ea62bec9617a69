// Package throttle applies token-bucket limits per client IP. The router uses
// one instance for the whole API and a stricter one for the login route.
package throttle

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"staff-api/internal/observability"
	"staff-api/internal/response"
)

const idleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(r rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    burst,
		now:      time.Now,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleTTL {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > idleTTL {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// PerWindow converts "max requests per window" into a rate and burst for PerIP.
func PerWindow(limit int, window time.Duration) (float64, int) {
	if limit <= 0 || window <= 0 {
		return 0, 0
	}
	return float64(limit) / window.Seconds(), limit
}

// PerIP allows perSecond requests per client with the given burst and answers
// 429 with message once a client runs dry. A non-positive rate disables the
// limit.
func PerIP(perSecond float64, burst int, message string) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := newIPLimiter(rate.Limit(perSecond), burst)
	retryAfter := strconv.Itoa(int(math.Max(1, math.Ceil(1/perSecond))))
	if message == "" {
		message = "too many requests"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.get(clientKey(r)).Allow() {
				w.Header().Set("Retry-After", retryAfter)
				response.Fail(w, http.StatusTooManyRequests, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	return observability.ClientIP(r)
}
