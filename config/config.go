package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Meet     MeetConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis;
// transcript fan-out then stays local to this instance.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds platform bearer token settings.
type AuthConfig struct {
	JWTSecret   string
	ExpireHours int
}

// MeetConfig holds conferencing join-token settings. The secret is shared
// with the conferencing backend and must never be empty at startup.
type MeetConfig struct {
	AppSecret   string // HMAC-SHA256 signing secret
	Domain      string // conferencing domain, becomes the token subject
	Issuer      string
	Audience    string
	TokenTTLSec int
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file, and
// validates it. A missing conferencing secret fails here, at startup, rather
// than on the first token request.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "lms"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("AUTH_JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("AUTH_JWT_EXPIRE_HOURS", 24),
		},
		Meet: MeetConfig{
			AppSecret:   getEnv("MEET_APP_SECRET", ""),
			Domain:      getEnv("MEET_DOMAIN", ""),
			Issuer:      getEnv("MEET_ISSUER", "envo-lms"),
			Audience:    getEnv("MEET_AUDIENCE", "jitsi"),
			TokenTTLSec: getEnvInt("MEET_TOKEN_TTL_SEC", 3600),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings. Called by Load; exported for tests.
func (c *Config) Validate() error {
	if c.Meet.AppSecret == "" {
		return errors.New("MEET_APP_SECRET is required")
	}
	if c.Meet.Domain == "" {
		return errors.New("MEET_DOMAIN is required")
	}
	if c.Meet.TokenTTLSec <= 0 {
		return fmt.Errorf("MEET_TOKEN_TTL_SEC must be positive, got %d", c.Meet.TokenTTLSec)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
