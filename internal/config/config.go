package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	AuthorityBaseURL string
	AuthorityAPIKey  string
	LicenseKey       string
	AuthorityTimeout time.Duration

	CachePositiveTTL time.Duration
	CacheNegativeTTL time.Duration

	SessionDuration time.Duration
	SessionSecret   string
	AuthSecret      string
	AdminAPIKey     string

	GuardInterval   time.Duration
	MonitorInterval time.Duration
	WatchDomains    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabaseDSN string

	RoutesPolicyPath string

	RateLimitRequests   int
	RateLimitWindow     time.Duration
	RateLimitFailClosed bool
}

func FromEnv() Config {
	return Config{
		ListenAddr: envDefault("STOREGATE_LISTEN_ADDR", ":8080"),
		LogLevel:   envDefault("STOREGATE_LOG_LEVEL", "info"),

		AuthorityBaseURL: envDefault("AUTHORITY_BASE_URL", ""),
		AuthorityAPIKey:  envDefault("AUTHORITY_API_KEY", ""),
		LicenseKey:       envDefault("STOREGATE_LICENSE_KEY", ""),
		AuthorityTimeout: envDuration("AUTHORITY_TIMEOUT", 3*time.Second),

		CachePositiveTTL: envDuration("CACHE_POSITIVE_TTL", 4*time.Hour),
		CacheNegativeTTL: envDuration("CACHE_NEGATIVE_TTL", 30*time.Second),

		SessionDuration: envDuration("SESSION_DURATION", 24*time.Hour),
		SessionSecret:   envDefault("SESSION_SECRET", ""),
		AuthSecret:      envDefault("AUTH_SECRET", ""),
		AdminAPIKey:     envDefault("ADMIN_API_KEY", ""),

		GuardInterval:   envDuration("GUARD_INTERVAL", 30*time.Second),
		MonitorInterval: envDuration("MONITOR_INTERVAL", 5*time.Minute),
		WatchDomains:    envDefault("STOREGATE_WATCH_DOMAINS", ""),

		RedisAddr:     envDefault("REDIS_ADDR", ""),
		RedisPassword: envDefault("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		DatabaseDSN: envDefault("DATABASE_DSN", ""),

		RoutesPolicyPath: envDefault("ROUTES_POLICY_PATH", ""),

		RateLimitRequests:   envInt("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindow:     envDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitFailClosed: envBool("RATE_LIMIT_FAIL_CLOSED", false),
	}
}

func envDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

func envDuration(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func envInt(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func envBool(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}
