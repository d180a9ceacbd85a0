package mcpserver

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/erraggy/specbuild/shaker"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Build tool defaults.
	IgnoreConflict bool
	ShakeStrategy  string

	// Limits.
	MaxSpecs      int
	MaxInlineSize int64

	// AllowPrivateIPs disables the SSRF guard on URL specs.
	AllowPrivateIPs bool
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from SPECBUILD_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		IgnoreConflict:  envBool("SPECBUILD_IGNORE_CONFLICT", false),
		ShakeStrategy:   envStrategy("SPECBUILD_SHAKE_STRATEGY"),
		MaxSpecs:        envInt("SPECBUILD_MAX_SPECS", 50),
		MaxInlineSize:   int64(envInt("SPECBUILD_MAX_INLINE_SIZE", 10*1024*1024)),
		AllowPrivateIPs: envBool("SPECBUILD_ALLOW_PRIVATE_IPS", false),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envStrategy(key string) string {
	v := os.Getenv(key)
	if v == "" {
		return ""
	}
	if _, err := shaker.ParseStrategy(v); err != nil {
		slog.Warn("invalid strategy env var, ignoring", "key", key, "value", v)
		return ""
	}
	return v
}
