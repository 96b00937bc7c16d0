package usecase

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"storegate/internal/domain"

	"github.com/sirupsen/logrus"
)

const defaultMonitorInterval = 5 * time.Minute

// DomainMonitor is the coarser poller. It inspects the account and
// subscription fields of the authority snapshot directly, independent of the
// reason-code taxonomy, which catches cases a long-lived "valid" session
// would mask, like a subscription expiring mid-session.
type DomainMonitor struct {
	Checker    *DomainChecker
	Sessions   *SessionAuthority
	Domain     string
	Interval   time.Duration
	OnRedirect RevocationSink
	Log        *logrus.Logger
	Now        Clock

	inflight atomic.Bool
}

func (m *DomainMonitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one monitor cycle: fetch a snapshot through the shared cache and
// dedup, evaluate the three registration predicates, and on the first
// failure clear all cached trust before handing off to the redirect sink.
func (m *DomainMonitor) Tick(ctx context.Context) {
	if !m.inflight.CompareAndSwap(false, true) {
		return
	}
	defer m.inflight.Store(false)

	result, err := m.Checker.Refresh(ctx, m.Domain, domain.CheckSourceMonitor)
	if err != nil {
		return
	}
	if result.Reason == domain.ReasonUnreachable {
		return
	}

	decision := EvaluateRegistration(result, m.now())
	if decision == nil {
		return
	}

	if m.Sessions != nil {
		_ = m.Sessions.Revoke(ctx, m.Domain)
	}
	if m.Checker != nil {
		_ = m.Checker.Invalidate(ctx, m.Domain)
	}
	if m.Log != nil {
		m.Log.WithFields(logrus.Fields{
			"domain": m.Domain,
			"error":  decision.Params["error"],
		}).Warn("domain monitor cleared trust")
	}
	if m.OnRedirect != nil {
		m.OnRedirect(ctx, m.Domain, *decision, false)
	}
}

// EvaluateRegistration checks the three independent predicates: the domain
// registration exists, the parent account is active, and the subscription is
// active and unexpired. Each failure carries its own reason parameters so
// the landing page can say something actionable.
func EvaluateRegistration(result domain.VerificationResult, now time.Time) *domain.GateDecision {
	if result.Reason == domain.ReasonKeyInvalid || result.Reason == domain.ReasonDomainMismatch {
		d := domain.Redirect(domain.GateRedirectSetup, string(result.Reason), map[string]string{
			"error": domain.RedirectErrDomainNotFound,
		})
		return &d
	}

	snapshot := result.Client
	if snapshot == nil {
		return nil
	}

	if status := snapshot.AccountStatus; status != "" && !statusActive(status) {
		d := domain.Redirect(domain.GateRedirectSetup, string(domain.ReasonStatusInactive), map[string]string{
			"error":  domain.RedirectErrClientStatus,
			"status": status,
		})
		return &d
	}

	if end := snapshot.SubscriptionEndDate; end != nil && now.After(*end) {
		d := domain.Redirect(domain.GateRedirectSetup, string(domain.ReasonSubscriptionExpired), map[string]string{
			"error":  domain.RedirectErrSubscriptionExpired,
			"expiry": end.UTC().Format(time.RFC3339),
		})
		return &d
	}

	if status := snapshot.SubscriptionStatus; status != "" && !statusActive(status) {
		d := domain.Redirect(domain.GateRedirectSetup, string(domain.ReasonSubscriptionInactive), map[string]string{
			"error":  domain.RedirectErrSubscriptionStatus,
			"status": status,
		})
		return &d
	}

	return nil
}

func statusActive(status string) bool {
	switch strings.ToLower(status) {
	case "active", "trial", "trialing":
		return true
	default:
		return false
	}
}

func (m *DomainMonitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
