package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestRateLimiterFixedWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(5, time.Minute, []string{"/api/contact"})
	limiter.now = clock.now

	for i := 0; i < 5; i++ {
		ok, _ := limiter.Allow("1.2.3.4|/api/contact")
		require.True(t, ok, "request %d", i+1)
	}

	clock.t = clock.t.Add(20 * time.Second)
	ok, retryAfter := limiter.Allow("1.2.3.4|/api/contact")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retryAfter)

	ok, _ = limiter.Allow("5.6.7.8|/api/contact")
	assert.True(t, ok, "other clients have their own window")

	clock.t = clock.t.Add(41 * time.Second)
	ok, _ = limiter.Allow("1.2.3.4|/api/contact")
	assert.True(t, ok, "a new window starts once the old one ends")
}

func TestRateLimiterSweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	limiter := NewRateLimiter(5, time.Minute, nil)
	limiter.now = clock.now

	limiter.Allow("a")
	clock.t = clock.t.Add(30 * time.Second)
	limiter.Allow("b")

	clock.t = clock.t.Add(31 * time.Second)
	assert.Equal(t, 1, limiter.Sweep())
	assert.Len(t, limiter.windows, 1)
	assert.Contains(t, limiter.windows, "b")
}

func TestRateLimiterMatchPrefix(t *testing.T) {
	limiter := NewRateLimiter(5, time.Minute, []string{"/api/contact", "/api/chat"})

	assert.Equal(t, "/api/contact", limiter.matchPrefix("/api/contact"))
	assert.Equal(t, "/api/contact", limiter.matchPrefix("/api/contact/"))
	assert.Empty(t, limiter.matchPrefix("/api/chat/sessions"))
	assert.Empty(t, limiter.matchPrefix("/api/contact/7f1c/read"))
	assert.Empty(t, limiter.matchPrefix("/api/contacts"))
	assert.Empty(t, limiter.matchPrefix("/api/projects"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	limiter := NewRateLimiter(5, time.Minute, []string{"/api/contact", "/api/chat"})
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(method, path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusCreated, send(http.MethodPost, "/api/contact", "10.0.0.1").Code)
	}

	rec := send(http.MethodPost, "/api/contact", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, send(http.MethodPost, "/api/chat", "10.0.0.1").Code, "prefixes are counted separately")
	assert.Equal(t, http.StatusCreated, send(http.MethodPost, "/api/contact", "10.0.0.2").Code)
	assert.Equal(t, http.StatusCreated, send(http.MethodGet, "/api/contact", "10.0.0.1").Code, "reads are not limited")
	assert.Equal(t, http.StatusCreated, send(http.MethodPost, "/api/projects", "10.0.0.1").Code)
	assert.Equal(t, http.StatusCreated, send(http.MethodPut, "/api/contact/7f1c/read", "10.0.0.1").Code, "admin routes below the prefix are not limited")
}

func TestRateLimiterIgnoresForwardedHeadersWhenProxyUntrusted(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute, []string{"/api/contact"})
	limiter.trustProxy = false
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.2"), "rotating the header does not open a new window")
}

func TestAdminContactActionsAreNotRateLimited(t *testing.T) {
	env := newTestEnv(t, Dependencies{}, nil)
	ctx := context.Background()

	body := map[string]string{"name": "Ada", "email": "ada@example.com", "message": "Hello"}
	rec := env.do(t, http.MethodPost, "/api/contact", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	path := "/api/contact/" + decodeBody[contactResponse](t, rec).ID.String() + "/read"

	for i := 0; i < 6; i++ {
		rec := env.do(t, http.MethodPut, path, nil, withToken(env.adminToken))
		assert.Equal(t, http.StatusNoContent, rec.Code, "action %d: %s", i+1, rec.Body.String())
	}

	unread, err := env.db.ContactRepo().FindAll(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestRateLimitThroughRouter(t *testing.T) {
	env := newTestEnv(t, Dependencies{}, nil)
	body := map[string]string{"name": "Ada", "email": "ada@example.com", "message": "Hello"}

	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodPost, "/api/contact", body, withRemoteAddr("192.0.2.10:1234"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, "/api/contact", body, withRemoteAddr("192.0.2.10:1234"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	submissions, err := env.db.ContactRepo().FindAll(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, submissions, 5)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.1:80", "203.0.113.9"},
		{"remote addr", nil, "198.51.100.4:443", "198.51.100.4"},
		{"remote addr without port", nil, "198.51.100.4", "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
