package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Session backends understood by SESSION_BACKEND.
const (
	SessionBackendCookie = "cookie"
	SessionBackendRedis  = "redis"
	SessionBackendSQLite = "sqlite"
)

// EnvProduction is the APP_ENV value that disables development conveniences.
const EnvProduction = "production"

const devSessionSecret = "dev-only-session-secret-change-me"

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	Env          string
	DatabasePath string

	SessionSecret        string
	SessionBackend       string
	SessionMaxAge        int // seconds
	SessionSweepSchedule string
	RedisURL             string

	LogDir   string
	LogLevel string

	BcryptCost         int
	CORSAllowedOrigins []string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	port, err := getEnvAsInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	maxAge, err := getEnvAsInt("SESSION_MAX_AGE", int((24 * time.Hour).Seconds()))
	if err != nil {
		return nil, err
	}
	cost, err := getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:   port,
		Env:          getEnv("APP_ENV", "development"),
		DatabasePath: getEnv("DATABASE_PATH", "./auth.db"),

		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionBackend:       strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendSQLite)),
		SessionMaxAge:        maxAge,
		SessionSweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		RedisURL:             getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),

		LogDir:   getEnv("LOG_DIR", "./logs"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BcryptCost:         cost,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.SessionSecret == "" && !cfg.IsProduction() {
		cfg.SessionSecret = devSessionSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendCookie, SessionBackendRedis, SessionBackendSQLite:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive, got %d", c.SessionMaxAge)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.IsProduction() {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
		if len(c.SessionSecret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in production")
		}
	}
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
