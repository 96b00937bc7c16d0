package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"storegate/internal/domain"

	"github.com/sirupsen/logrus"
)

const defaultGuardInterval = 30 * time.Second

// RevocationSink receives the guard's verdict after all local trust state
// has already been cleared. hard is true only for a definitive revocation,
// which demands a full re-evaluation from a clean slate rather than a soft
// route change.
type RevocationSink func(ctx context.Context, dom string, decision domain.GateDecision, hard bool)

// BackgroundGuard re-checks a domain on a short interval and force-revokes
// trust the moment the authority reports the key gone. It always bypasses
// the cache: its entire purpose is to beat the positive TTL to a revocation.
type BackgroundGuard struct {
	Checker     *DomainChecker
	Sessions    *SessionAuthority
	Routes      RouteClassifier
	Domain      string
	Interval    time.Duration
	ActiveRoute func() string
	OnRevoke    RevocationSink
	Log         *logrus.Logger

	inflight atomic.Bool
}

// Run polls until ctx is cancelled or the watched route becomes exempt.
// A tick is skipped, never queued, while the previous call is outstanding.
func (g *BackgroundGuard) Run(ctx context.Context) {
	interval := g.Interval
	if interval <= 0 {
		interval = defaultGuardInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if g.routeExempt(ctx) {
				return
			}
			g.tick(ctx)
		}
	}
}

// Tick runs one guard cycle. Exported for the serve loop and tests; Run
// calls it on the interval.
func (g *BackgroundGuard) Tick(ctx context.Context) {
	g.tick(ctx)
}

func (g *BackgroundGuard) tick(ctx context.Context) {
	if !g.inflight.CompareAndSwap(false, true) {
		return
	}
	defer g.inflight.Store(false)

	result, err := g.Checker.Refresh(ctx, g.Domain, domain.CheckSourceGuard)
	if err != nil {
		return
	}
	// The exemption state may have flipped while the call was in flight;
	// a superseded result must be discarded, not acted on.
	if g.routeExempt(ctx) {
		return
	}
	if result.Trusted() {
		return
	}
	if result.Reason == domain.ReasonUnreachable {
		// Transience is the gate's problem; the guard only acts on a
		// classified license failure.
		return
	}

	g.revoke(ctx, result)
}

// revoke clears all local trust state before invoking the sink, so nothing
// can read stale "valid" state after the authority already said otherwise.
func (g *BackgroundGuard) revoke(ctx context.Context, result domain.VerificationResult) {
	if g.Sessions != nil {
		_ = g.Sessions.Revoke(ctx, g.Domain)
	}
	if g.Checker != nil {
		_ = g.Checker.Invalidate(ctx, g.Domain)
	}

	decision := Decide(GateInput{
		Route:   domain.RoutePublic,
		Outcome: &result,
	})
	hard := result.Reason.Definitive()
	if g.Log != nil {
		g.Log.WithFields(logrus.Fields{
			"domain": g.Domain,
			"reason": result.Reason,
			"hard":   hard,
		}).Warn("background guard revoked trust")
	}
	if g.OnRevoke != nil {
		g.OnRevoke(ctx, g.Domain, decision, hard)
	}
}

func (g *BackgroundGuard) routeExempt(ctx context.Context) bool {
	if g.Routes == nil || g.ActiveRoute == nil {
		return false
	}
	class, err := g.Routes.Classify(ctx, g.ActiveRoute())
	if err != nil {
		return false
	}
	return class == domain.RouteExempt
}
