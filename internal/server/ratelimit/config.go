package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule is the rate limit for one endpoint. A prefix path (trailing "/")
// matches every request underneath it.
type Rule struct {
	Path   string
	Method string
	Limit  int // requests per Window; <= 0 means unlimited
	Window time.Duration
	Burst  int // burst capacity, defaults to Limit
}

// keyPath returns the path component of the bucket key. Prefix rules
// share one bucket so a client cannot dodge the limit by varying the
// suffix.
func (r *Rule) keyPath(path string) string {
	if strings.HasSuffix(r.Path, "/") {
		return r.Path
	}
	if r.Path != "" {
		return r.Path
	}
	return path
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Rules           []Rule
}

// DefaultConfig returns the built-in limits. Generation is the expensive
// operation and gets the strictest window; chat edits are cheaper but
// still burn model tokens.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    300,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Rules: []Rule{
			{Path: "/generate", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},
			{Path: "/chat", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
			{Path: "/resume-builder", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},
			{Path: "/publish", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
			{Path: "/purchase", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},
			{Path: "/export/", Method: "GET", Limit: 60, Window: time.Minute},
			{Path: "/health", Method: "GET", Limit: 0},
		},
	}
}

// LoadConfig builds a Config from environment variables, falling back to
// the defaults for anything unset.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}
	cfg.DefaultLimit = envInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = envDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = envDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	return cfg
}

// matchRule finds the rule for a request, trying exact paths before
// prefixes.
func matchRule(path, method string, rules []Rule) *Rule {
	for i := range rules {
		r := &rules[i]
		if r.Method == method && r.Path == path {
			return r
		}
	}
	for i := range rules {
		r := &rules[i]
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return nil
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
