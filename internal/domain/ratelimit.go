package domain

import (
	"context"
	"time"
)

// RateLimitDecision reports whether a verification attempt for a storefront
// domain may proceed and how much of the window remains. The counters feed
// the RateLimit-* response headers.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter throttles edge checks per storefront domain. Allow consumes
// one slot for key within the sliding window and returns the resulting
// decision.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}
