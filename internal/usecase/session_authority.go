package usecase

import (
	"context"
	"errors"
	"time"

	"storegate/internal/domain"

	"github.com/google/uuid"
)

const defaultSessionDuration = 24 * time.Hour

// SessionAuthority issues and validates the derived trust records: sessions
// after a definitive success, grace periods after an ambiguous failure. The
// two are deliberately distinct concepts; a session means "known good", a
// grace window only means "not yet known bad".
type SessionAuthority struct {
	Store           TrustStore
	Mirror          SessionMirror
	SessionDuration time.Duration
	Now             Clock
	NewID           func() string
}

func NewSessionAuthority(store TrustStore, mirror SessionMirror) *SessionAuthority {
	return &SessionAuthority{
		Store:           store,
		Mirror:          mirror,
		SessionDuration: defaultSessionDuration,
		Now:             time.Now,
		NewID:           uuid.NewString,
	}
}

// Issue creates a session for the domain. The expiry offset from issuance is
// always exactly the configured session duration.
func (a *SessionAuthority) Issue(ctx context.Context, dom string) (domain.Session, error) {
	key := domain.NormalizeDomain(dom)
	if key == "" {
		return domain.Session{}, domain.ErrDomainRequired
	}
	now := a.now()
	session := domain.Session{
		ID:        a.newID(),
		Domain:    key,
		Verified:  true,
		IssuedAt:  now,
		ExpiresAt: now.Add(a.duration()),
	}
	if err := a.Store.PutSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	if a.Mirror != nil {
		// Mirror failures must not cost the request; the store copy is
		// enough until the next issue.
		_ = a.Mirror.Upsert(ctx, session)
	}
	return session, nil
}

// IsValid reports whether an unexpired session exists, purging an expired
// one lazily on read.
func (a *SessionAuthority) IsValid(ctx context.Context, dom string) (bool, error) {
	key := domain.NormalizeDomain(dom)
	session, err := a.Store.GetSession(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if session.Expired(a.now()) {
		_ = a.Store.DeleteSession(ctx, key)
		return false, nil
	}
	return true, nil
}

// Adopt re-establishes a session the store lost but a signed cookie still
// proves, e.g. after an edge restart.
func (a *SessionAuthority) Adopt(ctx context.Context, session domain.Session) error {
	if session.Domain == "" {
		return domain.ErrDomainRequired
	}
	if session.Expired(a.now()) {
		return domain.ErrNotFound
	}
	return a.Store.PutSession(ctx, session)
}

// StartGrace opens a continued-access window after a failed verification.
// A definitive revocation gets a zero-length window; anything else gets the
// client profile's bounded grace.
func (a *SessionAuthority) StartGrace(ctx context.Context, dom string, reason domain.ReasonCode, profile domain.ClientProfile) (domain.GracePeriod, error) {
	key := domain.NormalizeDomain(dom)
	if key == "" {
		return domain.GracePeriod{}, domain.ErrDomainRequired
	}
	now := a.now()
	window := profile.GraceWindow
	if reason.Definitive() {
		window = 0
	}
	grace := domain.GracePeriod{
		Domain:    key,
		Reason:    reason,
		StartedAt: now,
		ExpiresAt: now.Add(window),
	}
	if window > 0 {
		if err := a.Store.PutGrace(ctx, grace); err != nil {
			return domain.GracePeriod{}, err
		}
	}
	return grace, nil
}

// GraceActive reports whether a regular or navigation grace window is open.
func (a *SessionAuthority) GraceActive(ctx context.Context, dom string) (bool, error) {
	key := domain.NormalizeDomain(dom)
	now := a.now()
	grace, err := a.Store.GetGrace(ctx, key)
	if err == nil && grace.Active(now) {
		return true, nil
	}
	if err == nil {
		_ = a.Store.DeleteGrace(ctx, key)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	nav, err := a.Store.GetNavigationGrace(ctx, key)
	if err == nil && now.Before(nav.ExpiresAt) {
		return true, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	return false, nil
}

// StartNavigationGrace opens the ephemeral first-contact pass-through window
// scoped by the client runtime.
func (a *SessionAuthority) StartNavigationGrace(ctx context.Context, dom string, profile domain.ClientProfile) error {
	key := domain.NormalizeDomain(dom)
	if key == "" {
		return domain.ErrDomainRequired
	}
	return a.Store.PutNavigationGrace(ctx, domain.NavigationGrace{
		Domain:    key,
		Profile:   profile.Runtime,
		ExpiresAt: a.now().Add(profile.GraceWindow),
	})
}

// Revoke clears every trust record for the domain. Callers revoke before
// navigating anywhere, so no stale "valid" state can be read afterwards.
func (a *SessionAuthority) Revoke(ctx context.Context, dom string) error {
	key := domain.NormalizeDomain(dom)
	if key == "" {
		return domain.ErrDomainRequired
	}
	var firstErr error
	for _, del := range []func(context.Context, string) error{
		a.Store.DeleteSession,
		a.Store.DeleteGrace,
		a.Store.DeleteNavigationGrace,
	} {
		if err := del(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) && firstErr == nil {
			firstErr = err
		}
	}
	if a.Mirror != nil {
		_ = a.Mirror.Delete(ctx, key)
	}
	return firstErr
}

func (a *SessionAuthority) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *SessionAuthority) duration() time.Duration {
	if a.SessionDuration > 0 {
		return a.SessionDuration
	}
	return defaultSessionDuration
}

func (a *SessionAuthority) newID() string {
	if a.NewID != nil {
		return a.NewID()
	}
	return uuid.NewString()
}
