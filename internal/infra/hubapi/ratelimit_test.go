package hubapi

import (
	"testing"
	"time"
)

func TestRateLimiter_EnforcesWindow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("first two requests must pass")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request within the window must be rejected")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("a different client has its own bucket")
	}
}

func TestRateLimiter_EvictsStaleBuckets(t *testing.T) {
	rl := newRateLimiter(5, 10*time.Millisecond)

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		rl.allow(ip)
	}

	time.Sleep(25 * time.Millisecond)

	// The next request sweeps every bucket whose window has lapsed.
	rl.allow("10.0.0.4")

	rl.mu.Lock()
	n := len(rl.buckets)
	rl.mu.Unlock()
	if n != 1 {
		t.Errorf("buckets after sweep: got %d, want 1", n)
	}
}
