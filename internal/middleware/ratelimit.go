package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxCallers caps the number of tracked limiters. New callers beyond it are
// refused until cleanup frees room.
const maxCallers = 100_000

// RateLimiter applies a token bucket per caller. The caller is the acting
// user when the Actor middleware resolved one, otherwise the client IP.
type RateLimiter struct {
	mu      sync.Mutex
	callers map[string]*caller
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type caller struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond sustained requests per caller with bursts
// of up to burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		callers: make(map[string]*caller),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// Handler answers 429 with Retry-After once a caller's bucket is empty.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, wait, ok := rl.take(callerKey(r))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			secs := max(int(math.Ceil(wait.Seconds())), 1)
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// take consumes one token for key and reports the whole tokens left. When
// refused, wait is how long until a token is available.
func (rl *RateLimiter) take(key string) (remaining int, wait time.Duration, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c := rl.callers[key]
	if c == nil {
		if len(rl.callers) >= maxCallers {
			return 0, time.Second, false
		}
		c = &caller{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.callers[key] = c
	}
	c.lastSeen = now

	if c.lim.AllowN(now, 1) {
		return int(c.lim.TokensAt(now)), 0, true
	}
	res := c.lim.ReserveN(now, 1)
	wait = res.DelayFrom(now)
	res.CancelAt(now)
	return 0, wait, false
}

// StartCleanup forgets callers idle for maxIdle, checking every interval
// until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				rl.cleanup(maxIdle)
			}
		}
	}()
}

func (rl *RateLimiter) cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-maxIdle)
	for k, c := range rl.callers {
		if c.lastSeen.Before(cutoff) {
			delete(rl.callers, k)
		}
	}
}

// Len reports how many callers are tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.callers)
}

// callerKey never trusts forwarding headers for the IP fallback.
func callerKey(r *http.Request) string {
	if u := UserFromContext(r.Context()); u != nil {
		return "user:" + u.ID
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return "ip:" + host
	}
	return "ip:" + r.RemoteAddr
}
