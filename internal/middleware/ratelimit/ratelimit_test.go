package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowWithinWindow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients are independent")
	}
	if rl.Hits() != 1 {
		t.Errorf("hits = %d, want 1", rl.Hits())
	}

	*now = now.Add(61 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("window should reset after a minute")
	}
}

func TestWindowDoesNotSlideOnRejectedAttempts(t *testing.T) {
	rl, now := newTestLimiter(t, 1)
	rl.Allow("ip")
	for i := 0; i < 5; i++ {
		*now = now.Add(10 * time.Second)
		rl.Allow("ip")
	}
	*now = now.Add(11 * time.Second)
	if !rl.Allow("ip") {
		t.Fatal("window started at the first request and must have expired")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 1)
	rl.Allow("ip")
	*now = now.Add(11 * time.Minute)
	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 0 {
		t.Fatalf("stale client not removed")
	}
}

func TestWrap(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Wrap(func(*http.Request) string { return "ip" }, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "61" {
		t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}
}
