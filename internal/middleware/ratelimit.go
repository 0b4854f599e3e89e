package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Expired windows are swept once the map grows past this size, so the
// limiter stays bounded without a background timer.
const rateLimiterSweepSize = 1024

type rateWindow struct {
	count    int
	openedAt time.Time
}

// RateLimiter caps requests per caller over a fixed window. Authenticated
// requests are counted per employee so one office NAT cannot exhaust the
// budget for everyone behind it; anonymous requests fall back to the
// client IP.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	limit   int
	window  time.Duration

	now func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*rateWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// callerKey prefers the authenticated employee id over the remote address.
func callerKey(r *http.Request) string {
	if id := GetUserID(r.Context()); id != uuid.Nil {
		return "emp:" + id.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(callerKey(r)) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	win, ok := rl.windows[key]
	if !ok || now.Sub(win.openedAt) >= rl.window {
		if len(rl.windows) >= rateLimiterSweepSize {
			rl.sweepLocked(now)
		}
		rl.windows[key] = &rateWindow{count: 1, openedAt: now}
		return true
	}

	win.count++
	return win.count <= rl.limit
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	for key, win := range rl.windows {
		if now.Sub(win.openedAt) >= rl.window {
			delete(rl.windows, key)
		}
	}
}
