package http

import (
	"context"
	"net/http"
	"time"

	"storegate/internal/domain"
	"storegate/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthCookieName carries the storefront customer token checked on protected
// routes. It is issued by the storefront's own auth flow, not by the gate.
const AuthCookieName = "storegate_auth"

// LicenseGate is the request-time license check. Every request is classified,
// resolved against the cached verification outcome, decided by the pure gate
// rules and then applied: sessions issued or revoked, grace windows opened,
// redirects sent.
func (s *Server) LicenseGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		dom := domain.NormalizeDomain(c.Request.Host)
		if dom == "" {
			writeErrorCode(c, http.StatusBadRequest, "DOMAIN_REQUIRED", "request host is required")
			return
		}

		route := s.classify(c.Request.Context(), c.Request.URL.Path)
		onSetup := isSetupPath(c.Request.URL.Path)
		profile := domain.ProfileFor(c.Request.UserAgent())

		if route == domain.RouteExempt {
			if onSetup {
				// A setup visit earns a short navigation grace so the user can
				// move between setup pages while the key is still settling.
				if err := s.sessions.StartNavigationGrace(c.Request.Context(), dom, profile); err != nil {
					s.log.WithError(err).WithField("domain", dom).Warn("navigation grace not recorded")
				}
			}
			c.Next()
			return
		}

		checkCtx, cancel := context.WithTimeout(c.Request.Context(), s.checkTimeout)
		result, err := s.checker.GetOrFetch(checkCtx, dom)
		cancel()

		var outcome *domain.VerificationResult
		if err == nil {
			outcome = &result
		} else {
			s.log.WithError(err).WithField("domain", dom).Warn("verification lookup failed")
		}

		sessionPresent := s.establishSession(c, dom)
		gracePresent, gerr := s.sessions.GraceActive(c.Request.Context(), dom)
		if gerr != nil {
			gracePresent = false
		}

		decision := usecase.Decide(usecase.GateInput{
			Route:          route,
			OnSetupRoute:   onSetup,
			AuthPresent:    s.authPresent(c),
			Outcome:        outcome,
			SessionPresent: sessionPresent,
			GracePresent:   gracePresent,
		})

		s.applyTrustEffects(c, dom, outcome, sessionPresent, profile)

		if decision.Action == domain.GateAllow {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, TargetURL(decision))
		c.Abort()
	}
}

// classify falls back to protected on classifier errors: an unclassifiable
// route must never become an accidental exemption.
func (s *Server) classify(ctx context.Context, path string) domain.RouteClass {
	route, err := s.routes.Classify(ctx, path)
	if err != nil {
		s.log.WithError(err).WithField("path", path).Warn("route classification failed")
		return domain.RouteProtected
	}
	return route
}

// establishSession reports whether the domain holds a live session. A valid
// signed cookie re-establishes a session the store has lost, as after an
// edge restart.
func (s *Server) establishSession(c *gin.Context, dom string) bool {
	valid, err := s.sessions.IsValid(c.Request.Context(), dom)
	if err == nil && valid {
		return true
	}
	token, err := c.Cookie(CookieName)
	if err != nil || token == "" {
		return false
	}
	session, err := s.cookies.Decode(token)
	if err != nil || session.Domain != dom {
		return false
	}
	if err := s.sessions.Adopt(c.Request.Context(), *session); err != nil {
		return false
	}
	return true
}

// applyTrustEffects updates per-domain trust state after an outcome: a
// trusted result without a session issues one, an authority-confirmed
// failure revokes and opens the reason-appropriate grace window, and an
// unreachable authority extends an existing session into a grace window.
func (s *Server) applyTrustEffects(c *gin.Context, dom string, outcome *domain.VerificationResult, sessionPresent bool, profile domain.ClientProfile) {
	if outcome == nil {
		return
	}
	ctx := c.Request.Context()
	switch {
	case outcome.Trusted():
		if sessionPresent {
			return
		}
		session, err := s.sessions.Issue(ctx, dom)
		if err != nil {
			s.log.WithError(err).WithField("domain", dom).Warn("session issue failed")
			return
		}
		s.setSessionCookie(c, session)
	case outcome.Reason == domain.ReasonUnreachable:
		if sessionPresent {
			if _, err := s.sessions.StartGrace(ctx, dom, outcome.Reason, profile); err != nil {
				s.log.WithError(err).WithField("domain", dom).Warn("grace start failed")
			}
		}
	case !outcome.Valid:
		if err := s.sessions.Revoke(ctx, dom); err != nil {
			s.log.WithError(err).WithField("domain", dom).Warn("session revoke failed")
		}
		s.clearSessionCookie(c)
		if _, err := s.sessions.StartGrace(ctx, dom, outcome.Reason, profile); err != nil {
			s.log.WithError(err).WithField("domain", dom).Warn("grace start failed")
		}
	}
}

func (s *Server) setSessionCookie(c *gin.Context, session domain.Session) {
	token, err := s.cookies.Encode(session)
	if err != nil {
		s.log.WithError(err).Warn("session cookie encode failed")
		return
	}
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge <= 0 {
		return
	}
	c.SetCookie(CookieName, token, maxAge, "/", "", false, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
}

// authPresent checks the storefront customer token on protected routes. With
// no shared auth secret configured the check is disabled and every visitor
// counts as authenticated.
func (s *Server) authPresent(c *gin.Context) bool {
	if len(s.authSecret) == 0 {
		return true
	}
	token, err := c.Cookie(AuthCookieName)
	if err != nil || token == "" {
		return false
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return s.authSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && parsed.Valid
}
