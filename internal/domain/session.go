package domain

import "time"

// Session is the derived, time-boxed trust record issued after a successful
// verification. It is advisory: the authority remains the source of truth on
// the slow path, and expiry is always enforced server-side.
type Session struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	Verified  bool      `json:"verified"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// GracePeriod is a bounded continued-access window masking a
// possibly-transient verification failure. A definitive revocation never
// carries grace; its window is zero-length.
type GracePeriod struct {
	Domain    string     `json:"domain"`
	Reason    ReasonCode `json:"reason"`
	StartedAt time.Time  `json:"started_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func (g GracePeriod) Active(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}

// NavigationGrace is an ephemeral first-contact pass-through window scoped by
// the client runtime profile, so a brand-new visitor is not bounced while the
// first verification is still in flight.
type NavigationGrace struct {
	Domain    string        `json:"domain"`
	Profile   ClientRuntime `json:"profile"`
	ExpiresAt time.Time     `json:"expires_at"`
}
