package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storegate/internal/config"
	"storegate/internal/domain"
	"storegate/internal/infra/authority"
	"storegate/internal/infra/cachemem"
	"storegate/internal/infra/cacheredis"
	"storegate/internal/infra/db"
	gatehttp "storegate/internal/infra/http"
	"storegate/internal/infra/policyroute"
	"storegate/internal/infra/ratelimit"
	"storegate/internal/infra/sessionmem"
	"storegate/internal/infra/sessionredis"
	"storegate/internal/logging"
	"storegate/internal/usecase"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	cfg := config.FromEnv()
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "listen address")
	fs.StringVar(&cfg.AuthorityBaseURL, "authority", cfg.AuthorityBaseURL, "license authority base URL")
	fs.StringVar(&cfg.LicenseKey, "license-key", cfg.LicenseKey, "license key presented to the authority")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address (empty for in-memory state)")
	fs.StringVar(&cfg.DatabaseDSN, "db", cfg.DatabaseDSN, "postgres DSN for session mirror and audit (optional)")
	fs.StringVar(&cfg.RoutesPolicyPath, "routes-policy", cfg.RoutesPolicyPath, "rego policy path for route classes (optional)")
	fs.StringVar(&cfg.WatchDomains, "watch", cfg.WatchDomains, "comma-separated domains for the background pollers")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if cfg.AuthorityBaseURL == "" {
		fmt.Fprintln(os.Stderr, "serve requires --authority or AUTHORITY_BASE_URL")
		return 1
	}
	if cfg.LicenseKey == "" {
		fmt.Fprintln(os.Stderr, "serve requires --license-key or STOREGATE_LICENSE_KEY")
		return 1
	}
	if cfg.SessionSecret == "" {
		fmt.Fprintln(os.Stderr, "serve requires SESSION_SECRET")
		return 1
	}

	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
	}

	cache, trust, limiter, err := buildStateBackends(cfg, redisClient)
	if err != nil {
		fmt.Fprintf(os.Stderr, "state backends: %v\n", err)
		return 1
	}

	var mirror usecase.SessionMirror
	var audit *usecase.AuditEmitter
	var auditReader gatehttp.AuditReader
	var mirrorReader gatehttp.MirrorReader
	if cfg.DatabaseDSN != "" {
		gormDB, err := db.Open(cfg.DatabaseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			return 1
		}
		sessionRepo := db.NewSessionRepository(gormDB)
		mirror = sessionRepo
		mirrorReader = sessionRepo
		auditRepo := db.NewCheckAuditRepository(gormDB)
		audit = usecase.NewAuditEmitter(auditRepo, time.Now)
		audit.Log = log
		auditReader = auditRepo
	}

	routes, err := buildRouteEngine(ctx, cfg.RoutesPolicyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "route policy: %v\n", err)
		return 1
	}

	checker := &usecase.DomainChecker{
		Authority: authority.New(authority.Config{
			BaseURL:    cfg.AuthorityBaseURL,
			APIKey:     cfg.AuthorityAPIKey,
			LicenseKey: cfg.LicenseKey,
			Timeout:    cfg.AuthorityTimeout,
		}),
		Cache:       cache,
		Audit:       audit,
		PositiveTTL: cfg.CachePositiveTTL,
		NegativeTTL: cfg.CacheNegativeTTL,
	}

	sessions := usecase.NewSessionAuthority(trust, mirror)
	if cfg.SessionDuration > 0 {
		sessions.SessionDuration = cfg.SessionDuration
	}

	cookies, err := gatehttp.NewCookieCodec(cfg.SessionSecret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "session cookie codec: %v\n", err)
		return 1
	}

	server := gatehttp.NewServer(gatehttp.Options{
		Log:                 log,
		Checker:             checker,
		Cache:               cache,
		Sessions:            sessions,
		Routes:              routes,
		Cookies:             cookies,
		Audit:               auditReader,
		Mirror:              mirrorReader,
		CheckTimeout:        cfg.AuthorityTimeout,
		AuthSecret:          cfg.AuthSecret,
		AdminAPIKey:         cfg.AdminAPIKey,
		RateLimiter:         limiter,
		RateLimitRequests:   cfg.RateLimitRequests,
		RateLimitWindow:     cfg.RateLimitWindow,
		RateLimitFailClosed: cfg.RateLimitFailClosed,
	})

	startPollers(ctx, cfg, log, checker, sessions, routes)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	log.WithField("addr", cfg.ListenAddr).Info("storegate listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown incomplete")
		}
		return 0
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "serve: %v\n", err)
			return 1
		}
		return 0
	}
}

func buildStateBackends(cfg config.Config, client *redis.Client) (usecase.VerificationCache, usecase.TrustStore, domain.RateLimiter, error) {
	if client == nil {
		return cachemem.New(), sessionmem.New(), ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{}), nil
	}
	cache, err := cacheredis.New(client)
	if err != nil {
		return nil, nil, nil, err
	}
	trust, err := sessionredis.New(client)
	if err != nil {
		return nil, nil, nil, err
	}
	limiter, err := ratelimit.NewRedisLimiter(client, time.Now)
	if err != nil {
		return nil, nil, nil, err
	}
	return cache, trust, limiter, nil
}

func buildRouteEngine(ctx context.Context, path string) (*policyroute.Engine, error) {
	if path != "" {
		return policyroute.NewEngineFromPath(ctx, path)
	}
	return policyroute.NewEngine(ctx)
}

// startPollers launches a background guard and a domain monitor per watched
// domain. Both report through the log; the decision sink is where a desktop
// or embedded client would force its navigation.
func startPollers(ctx context.Context, cfg config.Config, log *logrus.Logger, checker *usecase.DomainChecker, sessions *usecase.SessionAuthority, routes usecase.RouteClassifier) {
	sink := func(_ context.Context, dom string, decision domain.GateDecision, hard bool) {
		log.WithFields(logrus.Fields{
			"domain": dom,
			"action": string(decision.Action),
			"reason": decision.Reason,
			"hard":   hard,
		}).Warn("forced redirect")
	}
	for _, raw := range strings.Split(cfg.WatchDomains, ",") {
		dom := domain.NormalizeDomain(strings.TrimSpace(raw))
		if dom == "" {
			continue
		}
		guard := &usecase.BackgroundGuard{
			Checker:  checker,
			Sessions: sessions,
			Routes:   routes,
			Domain:   dom,
			Interval: cfg.GuardInterval,
			OnRevoke: sink,
			Log:      log,
		}
		monitor := &usecase.DomainMonitor{
			Checker:    checker,
			Sessions:   sessions,
			Domain:     dom,
			Interval:   cfg.MonitorInterval,
			OnRedirect: sink,
			Log:        log,
		}
		go guard.Run(ctx)
		go monitor.Run(ctx)
	}
}
