package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: func() time.Time { return now }})

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(context.Background(), "domain:shop.example.com", 3, time.Minute)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d inside the limit must be allowed", i+1)
		}
		if decision.Remaining != 3-(i+1) {
			t.Fatalf("remaining = %d after %d requests", decision.Remaining, i+1)
		}
	}

	decision, err := limiter.Allow(context.Background(), "domain:shop.example.com", 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if decision.Allowed {
		t.Fatal("request over the limit must be denied")
	}
	if decision.ResetAt != now.Add(time.Minute) {
		t.Fatalf("reset at %v, want %v", decision.ResetAt, now.Add(time.Minute))
	}

	// A fresh window resets the counter.
	now = now.Add(time.Minute + time.Second)
	decision, err = limiter.Allow(context.Background(), "domain:shop.example.com", 3, time.Minute)
	if err != nil || !decision.Allowed {
		t.Fatalf("new window must allow, got %+v %v", decision, err)
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	if d, _ := limiter.Allow(context.Background(), "domain:a.example.com", 1, time.Minute); !d.Allowed {
		t.Fatal("first request for a must be allowed")
	}
	if d, _ := limiter.Allow(context.Background(), "domain:a.example.com", 1, time.Minute); d.Allowed {
		t.Fatal("second request for a must be denied")
	}
	if d, _ := limiter.Allow(context.Background(), "domain:b.example.com", 1, time.Minute); !d.Allowed {
		t.Fatal("b must not share a's window")
	}
}

func TestMemoryLimiterZeroLimitDisables(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	for i := 0; i < 10; i++ {
		if d, _ := limiter.Allow(context.Background(), "domain:shop.example.com", 0, time.Minute); !d.Allowed {
			t.Fatal("zero limit must disable throttling")
		}
	}
}
