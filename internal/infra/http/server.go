package http

import (
	"context"
	"net/http"
	"time"

	"storegate/internal/domain"
	"storegate/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultCheckTimeout = 3 * time.Second

// AuditReader exposes the license-check audit trail to the admin surface.
type AuditReader interface {
	ListRecent(ctx context.Context, dom string, limit int) ([]domain.CheckRecord, error)
}

// MirrorReader exposes the persisted session mirror to the admin surface.
type MirrorReader interface {
	Get(ctx context.Context, dom string) (*domain.Session, error)
}

type Server struct {
	log      *logrus.Logger
	checker  *usecase.DomainChecker
	cache    usecase.VerificationCache
	sessions *usecase.SessionAuthority
	routes   usecase.RouteClassifier
	cookies  *CookieCodec
	audit    AuditReader
	mirror   MirrorReader

	checkTimeout time.Duration
	authSecret   []byte
	adminAPIKey  string

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

type Options struct {
	Log      *logrus.Logger
	Checker  *usecase.DomainChecker
	Cache    usecase.VerificationCache
	Sessions *usecase.SessionAuthority
	Routes   usecase.RouteClassifier
	Cookies  *CookieCodec
	Audit    AuditReader
	Mirror   MirrorReader

	CheckTimeout time.Duration
	AuthSecret   string
	AdminAPIKey  string

	RateLimiter         domain.RateLimiter
	RateLimitRequests   int
	RateLimitWindow     time.Duration
	RateLimitFailClosed bool
}

func NewServer(opts Options) *Server {
	checkTimeout := opts.CheckTimeout
	if checkTimeout <= 0 {
		checkTimeout = defaultCheckTimeout
	}
	log := opts.Log
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		log:                 log,
		checker:             opts.Checker,
		cache:               opts.Cache,
		sessions:            opts.Sessions,
		routes:              opts.Routes,
		cookies:             opts.Cookies,
		audit:               opts.Audit,
		mirror:              opts.Mirror,
		checkTimeout:        checkTimeout,
		authSecret:          []byte(opts.AuthSecret),
		adminAPIKey:         opts.AdminAPIKey,
		rateLimiter:         opts.RateLimiter,
		rateLimitRequests:   opts.RateLimitRequests,
		rateLimitWindow:     opts.RateLimitWindow,
		rateLimitFailClosed: opts.RateLimitFailClosed,
	}
}

// Routes assembles the gin engine: recovery, rate limiting, the license
// gate, then the landing and admin surfaces. Everything not matched is the
// storefront hand-off, which only runs once the gate allowed the request.
func (s *Server) Routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.enforceRateLimit())
	engine.Use(s.LicenseGate())

	engine.GET("/healthz", s.handleHealth)
	engine.GET(PathSetup, s.handleSetupPage)
	engine.GET(PathInvalid, s.handleInvalidPage)
	engine.GET(PathRegister, s.handleRegisterPage)

	internal := engine.Group("/internal", s.requireAdminKey())
	internal.POST("/license/invalidate", s.handleInvalidate)
	internal.GET("/license/status", s.handleLicenseStatus)

	engine.NoRoute(s.handleStorefront)
	return engine
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}

func (s *Server) requireAdminKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.adminAPIKey == "" || c.GetHeader("X-Admin-Key") != s.adminAPIKey {
			writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
			return
		}
		c.Next()
	}
}
