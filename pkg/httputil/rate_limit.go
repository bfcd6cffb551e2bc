package httputil

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/itamcloud/itam-backend/pkg/actor"
	"github.com/itamcloud/itam-backend/pkg/errors"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an unused per-key limiter is kept around
const idleLimiterTTL = 10 * time.Minute

// KeyFunc extracts the rate limiting key from a request
type KeyFunc func(*http.Request) string

// RemoteAddrKey keys limiters by client host. The port is dropped so that
// reconnecting does not yield a fresh bucket.
func RemoteAddrKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CallerKey keys limiters by the authenticated caller, falling back to the
// client host when the request carries no actor. Mount after Authenticate.
func CallerKey(r *http.Request) string {
	if a := actor.FromContext(r.Context()); !a.IsSystem() {
		return "actor:" + a.ID
	}
	return "addr:" + RemoteAddrKey(r)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key
type RateLimiter struct {
	keyFunc  KeyFunc
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given burst per key
func NewRateLimiter(keyFunc KeyFunc, perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		keyFunc:  keyFunc,
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

// Allow reports whether a request for key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.limiters[key]
	if !ok {
		rl.evictIdle(now)
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// evictIdle drops limiters not used for idleLimiterTTL. Caller holds mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > idleLimiterTTL {
			delete(rl.limiters, key)
		}
	}
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.keyFunc(r)) {
			w.Header().Set("Retry-After", "1")
			Error(w, errors.RateLimited())
			return
		}
		next.ServeHTTP(w, r)
	})
}
