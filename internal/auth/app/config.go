package app

import (
	"os"
	"strconv"
	"time"

	"github.com/wrenauth/wren/pkg/jwtx"
)

type Config struct {
	Issuer string // Required: issuer claim for minted access tokens

	DatabaseFile string // Optional: path to SQLite database file (default: ./wren.db)

	AuthorizationCodeGrant bool // Optional: enable authorization code redemption (default: true)
	IssueRefreshTokens     bool // Optional: issue refresh tokens on successful grants (default: true)

	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 7d)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:                 os.Getenv("WREN_ISSUER"),
		DatabaseFile:           getEnvOrDefault("WREN_DATABASE_FILE", "wren.db"),
		AuthorizationCodeGrant: getEnvBoolOrDefault("WREN_CODE_GRANT", true),
		IssueRefreshTokens:     getEnvBoolOrDefault("WREN_ISSUE_REFRESH_TOKENS", true),
		AccessTokenTTL:         getEnvDurationOrDefault("WREN_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL:        getEnvDurationOrDefault("WREN_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		Env:                    getEnvOrDefault("ENV", "dev"),
		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:              getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                   getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:    getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval:   getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "wren-auth" // Default issuer for local development
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
