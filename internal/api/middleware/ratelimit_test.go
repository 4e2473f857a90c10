package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return s, rdb
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	_, rdb := newMiniRedis(t)
	h := NewRateLimiter(rdb, 2, time.Minute, "test:ratelimit", nil).Middleware(okHandler())

	for i := 0; i < 2; i++ {
		if w := hit(h, "10.0.0.1:5000"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := hit(h, "10.0.0.1:5001")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected 0 remaining, got %q", got)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	_, rdb := newMiniRedis(t)
	h := NewRateLimiter(rdb, 1, time.Minute, "test:ratelimit", nil).Middleware(okHandler())

	if w := hit(h, "10.0.0.1:5000"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := hit(h, "10.0.0.2:5000"); w.Code != http.StatusOK {
		t.Fatalf("other client should have its own window, got %d", w.Code)
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	s, rdb := newMiniRedis(t)
	h := NewRateLimiter(rdb, 1, time.Minute, "test:ratelimit", nil).Middleware(okHandler())

	hit(h, "10.0.0.1:5000")
	if w := hit(h, "10.0.0.1:5000"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}

	s.FastForward(time.Minute + time.Second)
	if w := hit(h, "10.0.0.1:5000"); w.Code != http.StatusOK {
		t.Fatalf("expected window to reset, got %d", w.Code)
	}
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	s, rdb := newMiniRedis(t)
	h := NewRateLimiter(rdb, 1, time.Minute, "test:ratelimit", nil).Middleware(okHandler())
	s.Close()

	if w := hit(h, "10.0.0.1:5000"); w.Code != http.StatusOK {
		t.Fatalf("expected request to pass when redis is down, got %d", w.Code)
	}
}

func TestRateLimiter_RepairsKeyWithoutTTL(t *testing.T) {
	s, rdb := newMiniRedis(t)
	h := NewRateLimiter(rdb, 2, time.Minute, "test:ratelimit", nil).Middleware(okHandler())

	// Counter left over limit with no expiry, as after a failed EXPIRE.
	if err := s.Set("test:ratelimit:10.0.0.1", "5"); err != nil {
		t.Fatalf("seed key: %v", err)
	}

	if w := hit(h, "10.0.0.1:5000"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if ttl := s.TTL("test:ratelimit:10.0.0.1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected the key to regain a window TTL, got %v", ttl)
	}

	s.FastForward(time.Minute + time.Second)
	if w := hit(h, "10.0.0.1:5000"); w.Code != http.StatusOK {
		t.Fatalf("expected client to recover after one window, got %d", w.Code)
	}
}
