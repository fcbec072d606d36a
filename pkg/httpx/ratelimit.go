package httpx

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hellomouse/pinboard-server/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the token bucket applied to every request.
type RateLimitConfig struct {
	// Quota is the bucket capacity: the number of requests a client may
	// burst before replenishment matters.
	Quota int
	// ReplenishInterval is how long it takes to earn one token back.
	ReplenishInterval time.Duration
}

// KeyExtractor derives the bucket key from a request. Buckets are keyed
// before authentication runs, so extractors must not rely on identity.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// It handles X-Forwarded-For and X-Real-IP headers for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RateLimiter manages per-key token buckets. Buckets are created lazily
// on first request from a client and live in memory for the process
// lifetime, subject to idle pruning.
type RateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewRateLimiter builds a limiter table from config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		rate:        rate.Every(cfg.ReplenishInterval),
		burst:       cfg.Quota,
		lastCleanup: time.Now(),
	}
}

// Allow reports whether a request under key may proceed, spending one
// token if so. Safe for concurrent use; x/time/rate guarantees tokens
// are never double-spent across racing callers.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// RetryAfter estimates when the next token for key becomes available.
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	reservation := rl.getLimiter(key).Reserve()
	delay := reservation.Delay()
	reservation.Cancel() // estimate only, give the token back
	return delay
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	// Fast path: bucket already exists
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	actual, loaded := rl.limiters.LoadOrStore(key, limiter)
	if !loaded {
		rl.maybeCleanup()
	}
	return actual.(*rate.Limiter)
}

// maybeCleanup prunes idle buckets at most once every 5 minutes so the
// table does not grow without bound under ephemeral client keys.
func (rl *RateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()
	rl.prune()
}

// Prune removes buckets that have refilled completely. A full bucket
// means the client has been idle for at least quota*interval, so
// recreating it later is indistinguishable from having kept it.
func (rl *RateLimiter) Prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.prune()
}

func (rl *RateLimiter) prune() {
	rl.limiters.Range(func(key, value any) bool {
		limiter := value.(*rate.Limiter)
		if limiter.Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware rejects requests over quota with 429 before any
// authentication or resource logic runs. The body is deliberately
// generic; only the status distinguishes it from an auth failure.
func RateLimitMiddleware(rl *RateLimiter, keyExtractor KeyExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				// No key means no bucket to charge; let it through but
				// leave a trace since this should not happen in practice.
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if !rl.Allow(key) {
				retryAfter := max(int(rl.RetryAfter(key).Seconds()), 1)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				log.Warn("rate limit exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)

				WriteMessage(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
