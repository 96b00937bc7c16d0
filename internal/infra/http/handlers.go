package http

import (
	"net/http"
	"time"

	"storegate/internal/domain"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSetupPage is the license-setup landing. It echoes the reason-coded
// query parameters the gate attached and tells the client how often to retry,
// tuned to its runtime profile.
func (s *Server) handleSetupPage(c *gin.Context) {
	profile := domain.ProfileFor(c.Request.UserAgent())
	body := gin.H{
		"page":          "license_setup",
		"retry_seconds": int(profile.PollInterval.Seconds()),
	}
	copyRedirectParams(c, body)
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleInvalidPage(c *gin.Context) {
	body := gin.H{"page": "license_invalid"}
	copyRedirectParams(c, body)
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleRegisterPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "register"})
}

func copyRedirectParams(c *gin.Context, body gin.H) {
	for _, key := range []string{"error", "status", "expiry"} {
		if value := c.Query(key); value != "" {
			body[key] = value
		}
	}
}

type invalidateRequest struct {
	Domain string `json:"domain" binding:"required"`
}

// handleInvalidate drops the cached verification for a domain so the next
// request re-checks the authority. Trust state is untouched; the fresh
// outcome decides what happens to it.
func (s *Server) handleInvalidate(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "domain is required")
		return
	}
	dom := domain.NormalizeDomain(req.Domain)
	if dom == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "domain is required")
		return
	}
	if err := s.checker.Invalidate(c.Request.Context(), dom); err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "CACHE_UNAVAILABLE", "cache invalidation failed")
		return
	}
	s.log.WithField("domain", dom).Info("verification cache invalidated")
	c.JSON(http.StatusOK, gin.H{"invalidated": dom})
}

// handleLicenseStatus reports the cached verification outcome without
// triggering an authority call.
func (s *Server) handleLicenseStatus(c *gin.Context) {
	dom := domain.NormalizeDomain(c.Query("domain"))
	if dom == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "domain query parameter is required")
		return
	}
	result, ok, err := s.cache.Get(c.Request.Context(), dom)
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "CACHE_UNAVAILABLE", "cache read failed")
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"domain": dom, "cached": false})
		return
	}
	body := gin.H{
		"domain":            dom,
		"cached":            true,
		"valid":             result.Valid,
		"globally_verified": result.GloballyVerified,
		"checked_at":        result.CheckedAt.UTC().Format(time.RFC3339),
	}
	if result.Reason != "" {
		body["reason"] = string(result.Reason)
	}
	if s.mirror != nil {
		if session, err := s.mirror.Get(c.Request.Context(), dom); err == nil {
			body["session"] = gin.H{
				"verified":   session.Verified,
				"expires_at": session.ExpiresAt.UTC().Format(time.RFC3339),
			}
		}
	}
	if s.audit != nil {
		if records, err := s.audit.ListRecent(c.Request.Context(), dom, 10); err == nil {
			checks := make([]gin.H, 0, len(records))
			for _, record := range records {
				checks = append(checks, gin.H{
					"reason":     string(record.Reason),
					"source":     string(record.Source),
					"checked_at": record.CheckedAt.UTC().Format(time.RFC3339),
				})
			}
			body["recent_checks"] = checks
		}
	}
	c.JSON(http.StatusOK, body)
}

// handleStorefront is the hand-off for requests the gate allowed. A real
// deployment proxies to the storefront here; the standalone binary answers
// with a stub so the gate's behavior is observable end to end.
func (s *Server) handleStorefront(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"storefront": domain.NormalizeDomain(c.Request.Host),
		"path":       c.Request.URL.Path,
	})
}
