package app

import (
	"os"
	"strconv"
	"time"

	"github.com/keyfold/keyfold/pkg/jwtx"
)

type Config struct {
	Issuer string // Required: issuer claim for tokens

	RedisAddr     string // Optional: Redis address; empty means in-process store only
	RedisPassword string // Optional: Redis AUTH password
	RedisDB       int    // Optional: Redis logical database (default: 0)

	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 1h)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 30 days)
	CodeTTL         time.Duration // Optional: authorization code lifetime (default: 10m)

	NumKeys        int    // Optional: number of signing keys to generate (default: 3, min: 1, max: 10)
	KeyStorageMode string // Optional: key storage mode (ephemeral, persistent) (default: ephemeral)
	MasterKeyPath  string // Optional: path to master encryption key file (for persistent keys)
	PepperFile     string // Optional: path to file containing pepper for secret hashing (default: ./pepper)

	DefaultLimitPerMinute int64 // Optional: default gateway token limit per minute
	DefaultLimitPerHour   int64 // Optional: default gateway token limit per hour
	DefaultLimitPerDay    int64 // Optional: default gateway token limit per day

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:        os.Getenv("AUTH_ISSUER"),
		RedisAddr:     os.Getenv("AUTH_REDIS_ADDR"),
		RedisPassword: os.Getenv("AUTH_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("AUTH_REDIS_DB", 0),

		AccessTokenTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		CodeTTL:         getEnvDurationOrDefault("AUTH_CODE_TTL", 10*time.Minute),

		KeyStorageMode: getEnvOrDefault("AUTH_KEY_STORAGE_MODE", "ephemeral"),
		MasterKeyPath:  os.Getenv("AUTH_MASTER_KEY_PATH"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		DefaultLimitPerMinute: int64(getEnvIntOrDefault("GATEWAY_LIMIT_PER_MINUTE", 0)),
		DefaultLimitPerHour:   int64(getEnvIntOrDefault("GATEWAY_LIMIT_PER_HOUR", 0)),
		DefaultLimitPerDay:    int64(getEnvIntOrDefault("GATEWAY_LIMIT_PER_DAY", 0)),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	// Parse number of keys (default: 3, clamped in jwtx)
	if numKeysStr := os.Getenv("AUTH_NUM_KEYS"); numKeysStr != "" {
		if numKeys, err := strconv.Atoi(numKeysStr); err == nil {
			cfg.NumKeys = numKeys
		}
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "keyfold-auth"
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
