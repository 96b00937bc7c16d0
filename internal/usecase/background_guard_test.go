package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"storegate/internal/domain"
)

type sinkCall struct {
	dom      string
	decision domain.GateDecision
	hard     bool
}

type recordingSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (s *recordingSink) fn(ctx context.Context, dom string, decision domain.GateDecision, hard bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sinkCall{dom: dom, decision: decision, hard: hard})
}

func (s *recordingSink) snapshot() []sinkCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkCall(nil), s.calls...)
}

func TestGuardRevokesOnKeyInvalid(t *testing.T) {
	store := newMemoryTrustStore()
	sessions := NewSessionAuthority(store, nil)
	cache := newTrackingCache()
	checker := &DomainChecker{
		Authority: &countingAuthority{result: failedResult("", domain.ReasonKeyInvalid)},
		Cache:     cache,
	}
	if _, err := sessions.Issue(context.Background(), "shop.example.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var clearedBeforeSink bool
	guard := &BackgroundGuard{
		Checker:  checker,
		Sessions: sessions,
		Domain:   "shop.example.com",
		OnRevoke: func(ctx context.Context, dom string, decision domain.GateDecision, hard bool) {
			// All local trust state must already be gone by the time the
			// sink runs.
			clearedBeforeSink = store.sessionCount() == 0 && len(cache.dels) > 0
			if !hard {
				t.Errorf("key_invalid must be a hard revocation")
			}
			if decision.Action != domain.GateRedirectSetup {
				t.Errorf("key_invalid must decide redirect_setup, got %+v", decision)
			}
		},
	}
	guard.Tick(context.Background())

	if !clearedBeforeSink {
		t.Fatal("trust state must be cleared before the sink is invoked")
	}
}

func TestGuardSoftRevocationIsNotHard(t *testing.T) {
	sessions := NewSessionAuthority(newMemoryTrustStore(), nil)
	checker := &DomainChecker{
		Authority: &countingAuthority{result: failedResult("", domain.ReasonSubscriptionExpired)},
		Cache:     newTrackingCache(),
	}
	sink := &recordingSink{}
	guard := &BackgroundGuard{
		Checker:  checker,
		Sessions: sessions,
		Domain:   "shop.example.com",
		OnRevoke: sink.fn,
	}
	guard.Tick(context.Background())

	calls := sink.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected one sink call, got %d", len(calls))
	}
	if calls[0].hard {
		t.Fatal("subscription_expired must be a soft revocation")
	}
}

func TestGuardIgnoresTrustedAndUnreachable(t *testing.T) {
	for _, result := range []domain.VerificationResult{
		trustedResult("shop.example.com"),
		failedResult("shop.example.com", domain.ReasonUnreachable),
	} {
		sink := &recordingSink{}
		store := newMemoryTrustStore()
		sessions := NewSessionAuthority(store, nil)
		if _, err := sessions.Issue(context.Background(), "shop.example.com"); err != nil {
			t.Fatalf("Issue: %v", err)
		}
		guard := &BackgroundGuard{
			Checker: &DomainChecker{
				Authority: &countingAuthority{result: result},
				Cache:     newTrackingCache(),
			},
			Sessions: sessions,
			Domain:   "shop.example.com",
			OnRevoke: sink.fn,
		}
		guard.Tick(context.Background())
		if len(sink.snapshot()) != 0 {
			t.Fatalf("reason %q must not trigger the sink", result.Reason)
		}
		if store.sessionCount() != 1 {
			t.Fatalf("reason %q must not revoke the session", result.Reason)
		}
	}
}

func TestGuardSkipsOverlappingTicks(t *testing.T) {
	authority := &countingAuthority{
		result:  failedResult("", domain.ReasonKeyInvalid),
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	started := authority.started
	guard := &BackgroundGuard{
		Checker: &DomainChecker{Authority: authority, Cache: newTrackingCache()},
		Domain:  "shop.example.com",
	}

	done := make(chan struct{})
	go func() {
		guard.Tick(context.Background())
		close(done)
	}()
	<-started

	// Second tick while the first is outstanding must return immediately
	// without a second authority call.
	guard.Tick(context.Background())
	if got := authority.callCount(); got != 1 {
		t.Fatalf("overlapping tick must be skipped, calls = %d", got)
	}
	close(authority.block)
	<-done
}

func TestGuardStopsWhenRouteBecomesExempt(t *testing.T) {
	classifier := &staticClassifier{class: domain.RouteExempt}
	guard := &BackgroundGuard{
		Checker: &DomainChecker{
			Authority: &countingAuthority{result: failedResult("", domain.ReasonKeyInvalid)},
			Cache:     newTrackingCache(),
		},
		Routes:      classifier,
		Domain:      "shop.example.com",
		Interval:    time.Millisecond,
		ActiveRoute: func() string { return "/license-setup" },
	}

	done := make(chan struct{})
	go func() {
		guard.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("guard must return once the watched route is exempt")
	}
}

func TestGuardDiscardsResultWhenExemptionFlipsMidFlight(t *testing.T) {
	authority := &countingAuthority{
		result:  failedResult("", domain.ReasonKeyInvalid),
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	started := authority.started
	classifier := &staticClassifier{class: domain.RoutePublic}
	sink := &recordingSink{}
	guard := &BackgroundGuard{
		Checker:     &DomainChecker{Authority: authority, Cache: newTrackingCache()},
		Routes:      classifier,
		Domain:      "shop.example.com",
		ActiveRoute: func() string { return "/cart" },
		OnRevoke:    sink.fn,
	}

	done := make(chan struct{})
	go func() {
		guard.Tick(context.Background())
		close(done)
	}()
	<-started
	classifier.class = domain.RouteExempt
	close(authority.block)
	<-done

	if len(sink.snapshot()) != 0 {
		t.Fatal("a result superseded by exemption must be discarded")
	}
}
