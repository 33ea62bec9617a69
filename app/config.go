package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	JWTSecret   string
	AppEnv      string
	Release     string
	SentryDSN   string
	Port        string
	APIPrefix   string

	TokenTTL             time.Duration
	LoginMaxAttempts     int
	LoginLockDuration    time.Duration
	LoginRateLimitMax    int
	LoginRateLimitWindow time.Duration
	APIRatePerMinute     int
	APIRateBurst         int
	TrustProxyHeaders    bool

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	CloudinaryURL    string
	CloudinaryFolder string

	CronSecret       string
	CleanupBatchSize int

	AdminUsername string
	AdminEmail    string
	AdminPassword string
	AdminRole     string
}

// LoadConfig reads the environment. Only DATABASE_URL and JWT_SECRET are
// required; malformed numbers fall back to their defaults.
func LoadConfig() (Config, error) {
	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}

	prefix := "/" + strings.Trim(envOrDefault("API_PREFIX", "/api"), "/")
	if prefix == "/" {
		prefix = ""
	}

	return Config{
		DatabaseURL: databaseURL,
		JWTSecret:   jwtSecret,
		AppEnv:      envOrDefault("APP_ENV", "development"),
		Release:     strings.TrimSpace(os.Getenv("APP_RELEASE")),
		SentryDSN:   strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		Port:        envOrDefault("PORT", "8080"),
		APIPrefix:   prefix,

		TokenTTL:             envHoursOrDefault("TOKEN_TTL_HOURS", 24),
		LoginMaxAttempts:     envIntOrDefault("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockDuration:    envMinutesOrDefault("LOGIN_LOCK_MINUTES", 120),
		LoginRateLimitMax:    envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 10),
		LoginRateLimitWindow: envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60),
		APIRatePerMinute:     envIntOrDefault("API_RATE_LIMIT_PER_MINUTE", 300),
		APIRateBurst:         envIntOrDefault("API_RATE_LIMIT_BURST", 60),
		TrustProxyHeaders:    EnvBoolOrDefault("TRUST_PROXY_HEADERS", false),

		DBMaxOpenConns:    envIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    envIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		DBConnMaxIdleTime: envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),

		CloudinaryURL:    strings.TrimSpace(os.Getenv("CLOUDINARY_URL")),
		CloudinaryFolder: envOrDefault("CLOUDINARY_FOLDER", "employee-documents"),

		CronSecret:       strings.TrimSpace(os.Getenv("CRON_SECRET")),
		CleanupBatchSize: envIntOrDefault("LOCK_CLEANUP_BATCH_SIZE", 500),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminRole:     os.Getenv("ADMIN_ROLE"),
	}, nil
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
