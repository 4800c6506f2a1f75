package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds zap logger settings.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is json or console.
	Format string
	// Output is stdout, stderr or a file path opened in append mode.
	Output string
}

// LoadLoggerConfigFromEnv loads logger configuration from LOG_* variables.
func LoadLoggerConfigFromEnv() LoggerConfig {
	return LoggerConfig{
		Level:  strings.ToLower(GetEnv("LOG_LEVEL", "info")),
		Format: strings.ToLower(GetEnv("LOG_FORMAT", "json")),
		Output: GetEnv("LOG_OUTPUT", "stdout"),
	}
}

// ZapLevel returns the configured level, or info when it does not parse.
func (c LoggerConfig) ZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Validate validates logger configuration. A file output needs an existing directory.
func (c LoggerConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", c.Level)
	}

	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s (must be: json, console)", c.Format)
	}

	switch c.Output {
	case "", "stdout", "stderr":
	default:
		dir := filepath.Dir(c.Output)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("invalid LOG_OUTPUT: directory %s does not exist", dir)
		}
	}

	return nil
}

// IsProduction reports whether zap's production preset applies.
func (c LoggerConfig) IsProduction() bool {
	return c.Format == "json" && c.Level != "debug"
}
