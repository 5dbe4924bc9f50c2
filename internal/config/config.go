package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds validated environment configuration for the lobby server
// (§6, §9).
type Config struct {
	// ListenAddr is the TCP address the lobby server binds, default port
	// 12348 per §6.
	ListenAddr string

	// AdminAddr serves the internal admin HTTP surface and /metrics.
	AdminAddr string

	// IdentityBaseURL is the bearer-token HTTP API root exposing /me,
	// /chart/{id}, /record/{id} (§6).
	IdentityBaseURL string
	IdentityTimeout time.Duration

	// MonitorRosterPath points at monitors.txt (§6).
	MonitorRosterPath string

	// I10nDir points at a directory of "<language>.json" reason-string
	// translation files (§7); empty means only the built-in English table
	// is used.
	I10nDir string

	// UserInfoCacheSize and UserInfoCacheTTL bound the get_user_info cache
	// (§4.4): max 1000 entries, 300s TTL.
	UserInfoCacheSize int
	UserInfoCacheTTL  time.Duration

	// BreakerMaxFailures and BreakerOpenTimeout tune the circuit breaker
	// wrapping identity/chart/record calls (SPEC_FULL §4.1/§9).
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// ChatRateLimit and ChatRatePeriod tune the chat flood-protection
	// limiter (SPEC_FULL §9).
	ChatRateLimit  int
	ChatRatePeriod time.Duration

	// MaxConnections gates concurrent accepted sockets (§5).
	MaxConnections int64

	Development bool

	// BuildVersion and BuildCommit are embedded at link time via
	// -ldflags and surfaced in the post-authenticate build-info message
	// (SPEC_FULL §9/§10.4). Empty means no build metadata was embedded.
	BuildVersion string
	BuildCommit  string
}

// Load reads a .env file if present (godotenv, non-fatal if absent), then
// validates and returns the process configuration.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", ":12348")
	cfg.AdminAddr = getEnvOrDefault("ADMIN_ADDR", ":9090")

	cfg.IdentityBaseURL = os.Getenv("IDENTITY_BASE_URL")
	if cfg.IdentityBaseURL == "" {
		errs = append(errs, "IDENTITY_BASE_URL is required")
	}
	cfg.IdentityTimeout = durationOrDefault("IDENTITY_TIMEOUT", 10*time.Second)

	cfg.MonitorRosterPath = getEnvOrDefault("MONITOR_ROSTER_PATH", "monitors.txt")
	cfg.I10nDir = getEnvOrDefault("I10N_DIR", "")

	cfg.UserInfoCacheSize = intOrDefault("USER_INFO_CACHE_SIZE", 1000)
	cfg.UserInfoCacheTTL = durationOrDefault("USER_INFO_CACHE_TTL", 300*time.Second)

	cfg.BreakerMaxFailures = uint32(intOrDefault("BREAKER_MAX_FAILURES", 5))
	cfg.BreakerOpenTimeout = durationOrDefault("BREAKER_OPEN_TIMEOUT", 30*time.Second)

	cfg.ChatRateLimit = intOrDefault("CHAT_RATE_LIMIT", 5)
	cfg.ChatRatePeriod = durationOrDefault("CHAT_RATE_PERIOD", 10*time.Second)

	cfg.MaxConnections = int64(intOrDefault("MAX_CONNECTIONS", 100))

	cfg.Development = os.Getenv("GO_ENV") != "production"

	cfg.BuildVersion = os.Getenv("BUILD_VERSION")
	cfg.BuildCommit = os.Getenv("BUILD_COMMIT")

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return cfg, nil
}

func getEnvOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func intOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
