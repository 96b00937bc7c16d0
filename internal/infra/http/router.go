package http

import (
	"net/url"
	"strings"

	"storegate/internal/domain"
)

// Landing pages the gate and pollers hand off to.
const (
	PathSetup    = "/license-setup"
	PathInvalid  = "/license-invalid"
	PathRegister = "/register"
)

// isSetupPath reports whether path is the setup page or one of its
// sub-pages. A lookalike such as /license-setupfoo does not count.
func isSetupPath(path string) bool {
	return path == PathSetup || strings.HasPrefix(path, PathSetup+"/")
}

// TargetURL renders a redirect decision as a path with its reason-coded
// query parameters.
func TargetURL(decision domain.GateDecision) string {
	var path string
	switch decision.Action {
	case domain.GateRedirectSetup:
		path = PathSetup
	case domain.GateRedirectInvalid:
		path = PathInvalid
	case domain.GateRedirectRegister:
		path = PathRegister
	default:
		return "/"
	}
	if len(decision.Params) == 0 {
		return path
	}
	values := url.Values{}
	for key, value := range decision.Params {
		values.Set(key, value)
	}
	return path + "?" + values.Encode()
}
