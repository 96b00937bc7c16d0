package domain

import (
	"net"
	"strings"
	"time"
)

// ReasonCode is the closed classification of verification outcomes. It is
// assigned in exactly one place, the authority client; every other component
// pattern-matches against it.
type ReasonCode string

const (
	ReasonOK                   ReasonCode = "ok"
	ReasonKeyInvalid           ReasonCode = "key_invalid"
	ReasonDomainMismatch       ReasonCode = "domain_mismatch"
	ReasonStatusInactive       ReasonCode = "status_inactive"
	ReasonSubscriptionInactive ReasonCode = "subscription_inactive"
	ReasonSubscriptionExpired  ReasonCode = "subscription_expired"
	ReasonUnreachable          ReasonCode = "unreachable"
)

// Definitive reports whether the reason is a hard revocation rather than a
// possibly-transient failure. Only key_invalid earns zero grace.
func (r ReasonCode) Definitive() bool {
	return r == ReasonKeyInvalid
}

type ClientSnapshot struct {
	CompanyName         string     `json:"company_name,omitempty"`
	AccountStatus       string     `json:"account_status,omitempty"`
	SubscriptionStatus  string     `json:"subscription_status,omitempty"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`
}

// VerificationResult is the immutable output of one authority call.
type VerificationResult struct {
	Domain           string          `json:"domain"`
	Valid            bool            `json:"valid"`
	GloballyVerified bool            `json:"globally_verified"`
	Reason           ReasonCode      `json:"reason"`
	Client           *ClientSnapshot `json:"client,omitempty"`
	CheckedAt        time.Time       `json:"checked_at"`
}

// Trusted reports a fully usable license: valid and globally verified.
func (r VerificationResult) Trusted() bool {
	return r.Valid && r.GloballyVerified
}

// NormalizeDomain lowers the host and strips any scheme, port and trailing
// dot. The result is the key the cache, sessions and dedup all index on.
func NormalizeDomain(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if host, _, err := net.SplitHostPort(s); err == nil && host != "" {
		s = host
	}
	return strings.TrimSuffix(s, ".")
}
