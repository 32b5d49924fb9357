package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Rotation RotationConfig
	Audit    AuditConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Host            string
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// RotationConfig drives capacity and the periodic reassignment cycle.
type RotationConfig struct {
	Interval        time.Duration
	Concurrency     int
	MaxTasksPerUser int
}

// AuditConfig points at the sqlite database backing the audit trail.
// An empty DBPath disables the audit trail.
type AuditConfig struct {
	DBPath string
}

// Load reads configuration from .env (if present) and environment variables,
// applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	interval, err := getEnvAsDuration("REASSIGN_INTERVAL", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	shutdown, err := getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Host:            getEnv("APP_HOST", "0.0.0.0"),
			Port:            getEnv("APP_PORT", "8008"),
			GinMode:         getEnv("GIN_MODE", "release"),
			ShutdownTimeout: shutdown,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Rotation: RotationConfig{
			Interval:        interval,
			Concurrency:     getEnvAsInt("REASSIGN_CONCURRENCY", 16),
			MaxTasksPerUser: getEnvAsInt("MAX_TASKS_PER_USER", 3),
		},
		Audit: AuditConfig{
			DBPath: getEnvOrEmpty("AUDIT_DB_PATH", "file::memory:"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Rotation.Interval <= 0 {
		return fmt.Errorf("REASSIGN_INTERVAL must be positive, got %s", c.Rotation.Interval)
	}
	if c.Rotation.MaxTasksPerUser <= 0 {
		return fmt.Errorf("MAX_TASKS_PER_USER must be positive, got %d", c.Rotation.MaxTasksPerUser)
	}
	if c.Rotation.Concurrency <= 0 {
		return fmt.Errorf("REASSIGN_CONCURRENCY must be positive, got %d", c.Rotation.Concurrency)
	}
	switch c.App.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.App.GinMode)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvOrEmpty differs from getEnv in that an explicitly empty variable wins
// over the fallback.
func getEnvOrEmpty(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
