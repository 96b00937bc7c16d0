package domain

// RouteClass is the shared classification consumed by the edge gate and the
// background guard. It must come from a single source; duplicating it would
// let the server and client exemption sets drift.
type RouteClass string

const (
	RouteExempt    RouteClass = "exempt"
	RoutePublic    RouteClass = "public"
	RouteProtected RouteClass = "protected"
)

// GateAction is the closed set of request-time outcomes.
type GateAction string

const (
	GateAllow            GateAction = "allow"
	GateRedirectSetup    GateAction = "redirect_setup"
	GateRedirectInvalid  GateAction = "redirect_invalid"
	GateRedirectRegister GateAction = "redirect_register"
)

// Redirect error parameters understood by the landing pages.
const (
	RedirectErrDomainNotFound      = "domain_not_found"
	RedirectErrClientStatus        = "client_status"
	RedirectErrSubscriptionStatus  = "subscription_status"
	RedirectErrSubscriptionExpired = "subscription_expired"
)

// GateDecision is the tagged result of one gate evaluation. Params carry the
// reason-coded query parameters for redirect targets.
type GateDecision struct {
	Action GateAction
	Reason string
	Params map[string]string
}

func Allow(reason string) GateDecision {
	return GateDecision{Action: GateAllow, Reason: reason}
}

func Redirect(action GateAction, reason string, params map[string]string) GateDecision {
	return GateDecision{Action: action, Reason: reason, Params: params}
}
