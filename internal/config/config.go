package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Status backend
	BackendURL     string        // ex: "https://status.example.com"
	BackendFixture string        // optional YAML snapshot used instead of BackendURL
	BackendTimeout time.Duration // per request timeout
	BackendRPS     float64       // outgoing requests per second, 0 = unlimited
	BackendBurst   int           // outgoing burst
	PollInterval   time.Duration // incremental refresh period

	// Redis mirror (optional, empty RedisAddr disables it)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	MirrorTTL           time.Duration // TTL of mirrored snapshots

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateLimitBurst  int // per-client burst on the API
	RateLimitPerMin int // per-client sustained requests per minute
}

// Load reads the configuration from PULSE_* environment variables.
// Malformed values fall back to their default.
func Load() (*Config, error) {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PULSE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PULSE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("PULSE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PULSE_PRETTY_LOG", true),

		// Backend
		BackendURL:     getenv("PULSE_BACKEND_URL", ""),
		BackendFixture: getenv("PULSE_BACKEND_FIXTURE", ""),
		BackendTimeout: mustDuration("PULSE_BACKEND_TIMEOUT", 10*time.Second),
		BackendRPS:     getenvFloat("PULSE_BACKEND_RPS", 20),
		BackendBurst:   getenvInt("PULSE_BACKEND_BURST", 40),
		PollInterval:   mustDuration("PULSE_POLL_INTERVAL", time.Minute),

		// Redis settings
		RedisAddr:           getenv("PULSE_REDIS_ADDR", ""),
		RedisUser:           getenv("PULSE_REDIS_USERNAME", ""),
		RedisPassword:       getenv("PULSE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("PULSE_REDIS_DB", 0),
		RedisDT:             mustDuration("PULSE_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("PULSE_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("PULSE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("PULSE_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("PULSE_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("PULSE_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("PULSE_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("PULSE_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("PULSE_REDIS_WARN_THRESHOLD", 3),
		MirrorTTL:           mustDuration("PULSE_MIRROR_TTL", 10*time.Minute),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("PULSE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("PULSE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("PULSE_TRUST_PROXY", false),

		RateLimitBurst:  getenvInt("PULSE_RATE_LIMIT_BURST", 30),
		RateLimitPerMin: getenvInt("PULSE_RATE_LIMIT_PER_MIN", 120),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch {
	case c.BackendFixture != "":
		if _, err := os.Stat(c.BackendFixture); err != nil {
			errs = append(errs, fmt.Errorf("PULSE_BACKEND_FIXTURE: %w", err))
		}
	case c.BackendURL == "":
		errs = append(errs, errors.New("PULSE_BACKEND_URL is required when PULSE_BACKEND_FIXTURE is not set"))
	default:
		if u, err := url.Parse(c.BackendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("PULSE_BACKEND_URL must be an absolute http(s) URL, got %q", c.BackendURL))
		}
	}

	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("PULSE_POLL_INTERVAL must be > 0, got %v", c.PollInterval))
	}
	if c.RateLimitPerMin <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("PULSE_RATE_LIMIT_PER_MIN and PULSE_RATE_LIMIT_BURST must be > 0"))
	}

	return errors.Join(errs...)
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
