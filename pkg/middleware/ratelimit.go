package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/epicevents/crm/pkg/httputil"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
}

// DefaultRateLimitConfig returns default per-collaborator settings
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: 1000,
		WindowDuration:    time.Minute,
	}
}

type window struct {
	count int
	start time.Time
}

// RateLimiter tracks request counts per key in fixed windows.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	config  RateLimitConfig
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		config:  config,
		now:     time.Now,
	}
}

// Allow records a request for key and reports whether it is within the
// limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.config.WindowDuration {
		rl.windows[key] = &window{count: 1, start: now}
		return true
	}
	w.count++
	return w.count <= rl.config.RequestsPerWindow
}

// RateLimitMiddleware limits request rates per authenticated
// collaborator. It must run after AuthMiddleware; requests without an
// identity fall back to the remote address.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if authCtx := GetAuthContext(r); authCtx != nil {
				key = fmt.Sprintf("user:%d", authCtx.User.ID)
			}
			if !limiter.Allow(key) {
				httputil.WriteDetail(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
