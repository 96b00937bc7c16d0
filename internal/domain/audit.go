package domain

import "time"

// CheckSource identifies which component triggered an authority round-trip.
type CheckSource string

const (
	CheckSourceGate    CheckSource = "gate"
	CheckSourceGuard   CheckSource = "guard"
	CheckSourceMonitor CheckSource = "monitor"
	CheckSourceAdmin   CheckSource = "admin"
	CheckSourceCLI     CheckSource = "cli"
)

// CheckRecord is one row of the license-check audit trail. Cached reads are
// not recorded; only real authority round-trips and forced revocations are.
type CheckRecord struct {
	ID                 string
	Domain             string
	Valid              bool
	GloballyVerified   bool
	Reason             ReasonCode
	SubscriptionStatus string
	SubscriptionEnd    *time.Time
	Source             CheckSource
	CheckedAt          time.Time
	CreatedAt          time.Time
}
