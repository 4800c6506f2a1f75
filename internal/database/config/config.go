// Package config provides database configuration management.
package config

import (
	"fmt"
	"strconv"
	"strings"

	appConfig "github.com/festy23/reviewdesk/internal/config"
	"github.com/festy23/reviewdesk/pkg/retry"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database connection configuration.
type Config struct {
	// Driver is "postgres" or "sqlite".
	Driver string
	// Path is the SQLite database file, used when Driver is "sqlite".
	Path     string
	Host     string
	User     string
	Password string
	DBName   string
	Port     string
	SSLMode  string
	TimeZone string
}

// BuildDSN constructs the PostgreSQL DSN, or returns Path for SQLite.
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverSQLite {
		return cfg.Path
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode, cfg.TimeZone)
}

// LoadConfigFromEnv loads database configuration from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		Driver:   appConfig.GetEnv("DB_DRIVER", DriverPostgres),
		Path:     appConfig.GetEnv("DB_PATH", "reviewdesk.db"),
		Host:     appConfig.GetEnv("DB_HOST", "localhost"),
		User:     appConfig.GetEnv("DB_USER", "postgres"),
		Password: appConfig.GetEnv("DB_PASSWORD", "postgres"),
		DBName:   appConfig.GetEnv("DB_NAME", "reviewdesk"),
		Port:     appConfig.GetEnv("DB_PORT", "5432"),
		SSLMode:  appConfig.GetEnv("DB_SSLMODE", "disable"),
		TimeZone: appConfig.GetEnv("DB_TIMEZONE", "UTC"),
	}
}

// Validate validates database configuration.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" || c.DBName == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for postgres")
		}
	case DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER: %s (must be: postgres, sqlite)", c.Driver)
	}
	return nil
}

// SanitizeError removes the password from connection errors.
func SanitizeError(err error, cfg Config) error {
	if err == nil {
		return nil
	}
	errMsg := err.Error()
	if cfg.Password != "" {
		errMsg = strings.ReplaceAll(errMsg, cfg.Password, "***")
	}
	return fmt.Errorf("failed to connect to database: %s", errMsg)
}

// LoadRetryConfigFromEnv loads connection retry configuration from environment variables.
func LoadRetryConfigFromEnv() retry.Config {
	cfg := retry.PostgresConfig()
	cfg.MaxAttempts = appConfig.GetEnvInt("DB_RETRY_MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.InitialDelay = appConfig.GetEnvDuration("DB_RETRY_INITIAL_DELAY", cfg.InitialDelay)
	cfg.MaxDelay = appConfig.GetEnvDuration("DB_RETRY_MAX_DELAY", cfg.MaxDelay)
	if v := appConfig.GetEnv("DB_RETRY_MULTIPLIER", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Multiplier = f
		}
	}
	return cfg
}
