package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		if !rl.Allow("key", 5, time.Minute) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if rl.Allow("key", 5, time.Minute) {
		t.Error("6th request should be denied")
	}
}

func TestRateLimiterTakeRemaining(t *testing.T) {
	rl := NewRateLimiter()

	d := rl.Take("key", 3, time.Minute)
	if !d.Allowed || d.Remaining != 2 {
		t.Errorf("first take = %+v, want allowed with 2 remaining", d)
	}
	rl.Take("key", 3, time.Minute)
	rl.Take("key", 3, time.Minute)
	d = rl.Take("key", 3, time.Minute)
	if d.Allowed || d.Remaining != 0 {
		t.Errorf("fourth take = %+v, want denied with 0 remaining", d)
	}
	if time.Until(d.Reset) <= 0 {
		t.Error("expected reset in the future")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter()

	// Use a very short window
	for i := 0; i < 3; i++ {
		rl.Allow("key", 3, 10*time.Millisecond)
	}

	// Should be blocked
	if rl.Allow("key", 3, 10*time.Millisecond) {
		t.Error("should be blocked within window")
	}

	// Wait for window to expire
	time.Sleep(15 * time.Millisecond)

	if !rl.Allow("key", 3, 10*time.Millisecond) {
		t.Error("should be allowed after window expires")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()

	rl.Allow("expired", 5, 10*time.Millisecond)
	time.Sleep(15 * time.Millisecond)

	rl.Allow("active", 5, time.Minute)

	if removed := rl.Cleanup(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.entries["expired"]; ok {
		t.Error("expired entry should have been cleaned up")
	}
	if _, ok := rl.entries["active"]; !ok {
		t.Error("active entry should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter()
	keyFunc := func(r *http.Request) string { return "test" }

	handler := RateLimit(rl, keyFunc, 2, time.Minute, "slow down")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First 2 requests should pass
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
		if got := rec.Header().Get("RateLimit-Limit"); got != "2" {
			t.Errorf("RateLimit-Limit = %q, want %q", got, "2")
		}
	}

	// 3rd request should be rate limited
	req := httptest.NewRequest("POST", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if got := rec.Header().Get("RateLimit-Remaining"); got != "0" {
		t.Errorf("RateLimit-Remaining = %q, want %q", got, "0")
	}
	if msg := errorBody(t, rec); msg != "slow down" {
		t.Errorf("error = %q, want %q", msg, "slow down")
	}
}

func TestByIPSeparatesBuckets(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if got := ByIP("login", true)(req); got != "login:203.0.113.7" {
		t.Errorf("key = %q, want %q", got, "login:203.0.113.7")
	}
	if ByIP("login", true)(req) == ByIP("signup", true)(req) {
		t.Error("expected distinct keys per bucket")
	}
}

func TestByIPIgnoresForwardingHeadersByDefault(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "198.51.100.4:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("CF-Connecting-IP", "203.0.113.8")

	if got := ByIP("login", false)(req); got != "login:198.51.100.4" {
		t.Errorf("key = %q, want %q", got, "login:198.51.100.4")
	}
}

func TestRateLimitNotBypassedByRotatingForwardedFor(t *testing.T) {
	rl := NewRateLimiter()
	handler := RateLimit(rl, ByIP("login", false), 4, time.Minute, "slow down")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := 0
	for i := range 20 {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 4 {
		t.Errorf("allowed = %d, want 4", allowed)
	}
}
