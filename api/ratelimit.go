package api

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/metrics"
)

type rateWindow struct {
	count     int
	resetTime time.Time
}

// RateLimiter is a process-local fixed-window counter keyed by client IP and
// path prefix. State is lost on restart.
type RateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*rateWindow
	max      int
	window   time.Duration
	prefixes []string
	now      func() time.Time

	// trustProxy keys clients by X-Forwarded-For / X-Real-IP. Those headers are
	// client controlled unless a proxy in front of the service overwrites them.
	trustProxy bool
}

func NewRateLimiter(max int, window time.Duration, prefixes []string) *RateLimiter {
	return &RateLimiter{
		windows:    make(map[string]*rateWindow),
		max:        max,
		window:     window,
		prefixes:   prefixes,
		now:        time.Now,
		trustProxy: true,
	}
}

// Allow counts one request for key. When the window is exhausted it returns
// false and the time left until the window resets.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetTime) {
		w = &rateWindow{resetTime: now.Add(l.window)}
		l.windows[key] = w
	}
	if w.count >= l.max {
		return false, w.resetTime.Sub(now)
	}
	w.count++
	return true, 0
}

// Sweep drops windows that have already expired.
func (l *RateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.windows {
		if now.After(w.resetTime) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps once per window until ctx is done.
func (l *RateLimiter) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.Sweep(); n > 0 {
					log.Debug().Int("removed", n).Msg("rate limiter sweep")
				}
			}
		}
	}()
}

// matchPrefix only matches the submission endpoint itself. Deeper paths are
// the admin routes for the same resource and are never limited.
func (l *RateLimiter) matchPrefix(path string) string {
	path = strings.TrimSuffix(path, "/")
	for _, prefix := range l.prefixes {
		if path == strings.TrimSuffix(prefix, "/") {
			return prefix
		}
	}
	return ""
}

// Middleware limits submissions posted to one of the prefixes. Reads and
// preflights are never counted.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	responder := NewResponder(log.With().Str("handlerName", "rateLimiter").Logger())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := l.matchPrefix(r.URL.Path)
		if prefix == "" || isReadOnly(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		allowed, retryAfter := l.Allow(l.clientKey(r) + "|" + prefix)
		if !allowed {
			metrics.ObserveRateLimited(prefix)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			responder.WriteError(w, errs.NewRateLimitError(prefix, retryAfter))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func (l *RateLimiter) clientKey(r *http.Request) string {
	if l.trustProxy {
		return clientIP(r)
	}
	return remoteHost(r)
}

// clientIP is the first X-Forwarded-For hop, else X-Real-IP, else the
// connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
