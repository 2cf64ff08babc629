package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	Data   DataConfig
	Audit  AuditConfig
	Redis  RedisConfig

	// LogLevel controls application logging ("debug", "info", "warn",
	// "error")
	LogLevel string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	BaseURL         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds sign-in and session configuration
type AuthConfig struct {
	// AdminEmails is the comma-separated bootstrap admin allowlist,
	// parsed once at startup and injected where needed.
	AdminEmails string

	// Google OIDC client credentials
	GoogleClientID     string
	GoogleClientSecret string

	// SessionSecret signs the session cookie
	SessionSecret string

	// SessionMaxAge bounds how long a session cookie stays valid
	SessionMaxAge time.Duration
}

// DataConfig holds flat-file storage locations
type DataConfig struct {
	// Dir is the root for users.json and the comment files
	Dir string

	// PostsDir holds the markdown posts
	PostsDir string
}

// AuditConfig holds audit sink configuration
type AuditConfig struct {
	// LogDir is where the JSON-lines audit log lives
	LogDir string

	// DBPath enables the SQL audit sink when non-empty (sqlite file)
	DBPath string

	// RetentionDays bounds how long audit data is kept
	RetentionDays int
}

// RedisConfig holds the optional view-counter backend
type RedisConfig struct {
	// URL enables Redis-backed view counters when non-empty
	URL      string
	Password string
	DB       int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("PARABLE_HOST", "0.0.0.0"),
			Port:            getEnv("PARABLE_PORT", "8080"),
			BaseURL:         getEnv("PARABLE_BASE_URL", "http://localhost:8080"),
			ReadTimeout:     getEnvDuration("PARABLE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("PARABLE_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("PARABLE_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("PARABLE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			AdminEmails:        getEnv("ADMIN_EMAILS", ""),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			SessionSecret:      getEnv("PARABLE_SESSION_SECRET", ""),
			SessionMaxAge:      getEnvDuration("PARABLE_SESSION_MAX_AGE", 7*24*time.Hour),
		},
		Data: DataConfig{
			Dir:      getEnv("PARABLE_DATA_DIR", "data"),
			PostsDir: getEnv("PARABLE_POSTS_DIR", "posts"),
		},
		Audit: AuditConfig{
			LogDir:        getEnv("PARABLE_AUDIT_LOG_DIR", "logs"),
			DBPath:        getEnv("PARABLE_AUDIT_DB_PATH", ""),
			RetentionDays: getEnvInt("PARABLE_AUDIT_RETENTION_DAYS", 90),
		},
		Redis: RedisConfig{
			URL:      getEnv("PARABLE_REDIS_URL", ""),
			Password: getEnv("PARABLE_REDIS_PASSWORD", ""),
			DB:       getEnvInt("PARABLE_REDIS_DB", 0),
		},
		LogLevel: getEnv("PARABLE_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("PARABLE_SESSION_SECRET is required")
	}
	if (c.Auth.GoogleClientID == "") != (c.Auth.GoogleClientSecret == "") {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Audit.RetentionDays <= 0 {
		return fmt.Errorf("audit retention days must be positive")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
