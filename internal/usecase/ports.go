package usecase

import (
	"context"
	"time"

	"storegate/internal/domain"
)

// Authority is the external licensing service. Implementations never leak
// transport errors: every failure mode is classified into the reason-code
// taxonomy, so Check is total.
type Authority interface {
	Check(ctx context.Context, dom string) domain.VerificationResult
}

// VerificationCache memoizes verification results per normalized domain.
type VerificationCache interface {
	Get(ctx context.Context, key string) (*domain.VerificationResult, bool, error)
	Put(ctx context.Context, key string, value domain.VerificationResult, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// TrustStore holds all revocable per-domain trust state: sessions, grace
// periods and navigation graces. Keeping them behind one store lets a forced
// revocation clear everything in one place.
type TrustStore interface {
	GetSession(ctx context.Context, dom string) (*domain.Session, error)
	PutSession(ctx context.Context, session domain.Session) error
	DeleteSession(ctx context.Context, dom string) error

	GetGrace(ctx context.Context, dom string) (*domain.GracePeriod, error)
	PutGrace(ctx context.Context, grace domain.GracePeriod) error
	DeleteGrace(ctx context.Context, dom string) error

	GetNavigationGrace(ctx context.Context, dom string) (*domain.NavigationGrace, error)
	PutNavigationGrace(ctx context.Context, grace domain.NavigationGrace) error
	DeleteNavigationGrace(ctx context.Context, dom string) error
}

// SessionMirror persists issued sessions outside the process, so an edge
// restart does not drop trust that the cookie still proves.
type SessionMirror interface {
	Upsert(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, dom string) error
}

// RouteClassifier is the single source of the exempt/public/protected table,
// consumed identically by the edge gate and the background guard.
type RouteClassifier interface {
	Classify(ctx context.Context, path string) (domain.RouteClass, error)
}

// CheckAuditRepository appends license-check audit rows.
type CheckAuditRepository interface {
	Append(ctx context.Context, record domain.CheckRecord) error
}

type Clock func() time.Time
