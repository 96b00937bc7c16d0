package usecase

import (
	"time"

	"storegate/internal/domain"
)

// GateInput is everything one gate evaluation depends on. Decide is a pure
// function of it, so every branch is unit-testable without network or cookie
// side effects.
type GateInput struct {
	Route          domain.RouteClass
	OnSetupRoute   bool
	AuthPresent    bool
	Outcome        *domain.VerificationResult
	SessionPresent bool
	GracePresent   bool
}

// Decide maps one request's state to a gate decision. Invariants enforced
// here: a request already on the setup route is never redirected back to it,
// and an unverified key always redirects to setup, never allows.
func Decide(in GateInput) domain.GateDecision {
	if in.Route == domain.RouteExempt {
		return domain.Allow("exempt_route")
	}

	outcome := in.Outcome
	if outcome == nil {
		// A missing outcome means the checker never produced one; treat it
		// exactly like an unreachable authority.
		outcome = &domain.VerificationResult{Reason: domain.ReasonUnreachable}
	}

	var licensed domain.GateDecision
	switch {
	case outcome.Trusted():
		licensed = domain.Allow("verified")
	case outcome.Valid:
		licensed = decideUnverified(in)
	case outcome.Reason == domain.ReasonUnreachable:
		licensed = decideUnreachable(in)
	default:
		licensed = decideFailure(in, *outcome)
	}

	if licensed.Action != domain.GateAllow {
		return licensed
	}
	if in.Route == domain.RouteProtected && !in.AuthPresent {
		return domain.Redirect(domain.GateRedirectRegister, "auth_required", nil)
	}
	return licensed
}

// decideUnverified is the fixed rule for a valid but not globally verified
// key: always redirect to setup, unless the request is already there.
func decideUnverified(in GateInput) domain.GateDecision {
	if in.OnSetupRoute {
		return domain.Allow("setup_in_progress")
	}
	return domain.Redirect(domain.GateRedirectSetup, "key_unverified", nil)
}

// decideUnreachable fails soft only behind prior trust: an unexpired session
// or grace window keeps the door open, otherwise the gate fails closed.
func decideUnreachable(in GateInput) domain.GateDecision {
	if in.SessionPresent || in.GracePresent {
		return domain.Allow("prior_trust")
	}
	if in.OnSetupRoute {
		return domain.Allow("setup_in_progress")
	}
	return domain.Redirect(domain.GateRedirectSetup, string(domain.ReasonUnreachable), nil)
}

func decideFailure(in GateInput, outcome domain.VerificationResult) domain.GateDecision {
	if in.OnSetupRoute {
		return domain.Allow("setup_in_progress")
	}
	reason := string(outcome.Reason)
	switch outcome.Reason {
	case domain.ReasonKeyInvalid, domain.ReasonDomainMismatch:
		return domain.Redirect(domain.GateRedirectSetup, reason, map[string]string{
			"error": domain.RedirectErrDomainNotFound,
		})
	case domain.ReasonStatusInactive:
		return domain.Redirect(domain.GateRedirectInvalid, reason, withAccountStatus(map[string]string{
			"error": domain.RedirectErrClientStatus,
		}, outcome))
	case domain.ReasonSubscriptionInactive:
		return domain.Redirect(domain.GateRedirectInvalid, reason, withSubscriptionStatus(map[string]string{
			"error": domain.RedirectErrSubscriptionStatus,
		}, outcome))
	case domain.ReasonSubscriptionExpired:
		return domain.Redirect(domain.GateRedirectInvalid, reason, withExpiry(map[string]string{
			"error": domain.RedirectErrSubscriptionExpired,
		}, outcome))
	default:
		return domain.Redirect(domain.GateRedirectSetup, reason, nil)
	}
}

func withAccountStatus(params map[string]string, outcome domain.VerificationResult) map[string]string {
	if outcome.Client != nil && outcome.Client.AccountStatus != "" {
		params["status"] = outcome.Client.AccountStatus
	}
	return params
}

func withSubscriptionStatus(params map[string]string, outcome domain.VerificationResult) map[string]string {
	if outcome.Client != nil && outcome.Client.SubscriptionStatus != "" {
		params["status"] = outcome.Client.SubscriptionStatus
	}
	return params
}

func withExpiry(params map[string]string, outcome domain.VerificationResult) map[string]string {
	if outcome.Client != nil && outcome.Client.SubscriptionEndDate != nil {
		params["expiry"] = outcome.Client.SubscriptionEndDate.UTC().Format(time.RFC3339)
	}
	return params
}
