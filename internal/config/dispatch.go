package config

import (
	"fmt"
	"time"
)

// DispatchConfig holds outbound email queue configuration.
type DispatchConfig struct {
	// Workers is the number of goroutines draining the queue.
	Workers int
	// BufferSize is the queue capacity; publishes beyond it are dropped.
	BufferSize int
	// ShutdownTimeout bounds how long shutdown waits for in-flight sends.
	ShutdownTimeout time.Duration
	// SendTimeout bounds a single SMTP delivery.
	SendTimeout time.Duration
	// SettingsCacheTTL is how long active email settings are cached.
	SettingsCacheTTL time.Duration
	// RetryAttempts is the number of delivery attempts per message.
	RetryAttempts int
}

// LoadDispatchConfigFromEnv loads dispatch configuration from environment variables.
func LoadDispatchConfigFromEnv() DispatchConfig {
	return DispatchConfig{
		Workers:          GetEnvInt("DISPATCH_WORKERS", 2),
		BufferSize:       GetEnvInt("DISPATCH_BUFFER", 256),
		ShutdownTimeout:  GetEnvDuration("DISPATCH_SHUTDOWN_TIMEOUT", 10*time.Second),
		SendTimeout:      GetEnvDuration("SMTP_TIMEOUT", 30*time.Second),
		SettingsCacheTTL: GetEnvDuration("EMAIL_SETTINGS_CACHE_TTL", 30*time.Second),
		RetryAttempts:    GetEnvInt("SMTP_RETRY_ATTEMPTS", 2),
	}
}

// Validate validates dispatch configuration.
func (c DispatchConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("Workers must be greater than 0")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("BufferSize must be greater than 0")
	}
	if c.ShutdownTimeout <= 0 || c.SendTimeout <= 0 {
		return fmt.Errorf("dispatch timeouts must be greater than 0")
	}
	if c.SettingsCacheTTL < 0 {
		return fmt.Errorf("SettingsCacheTTL must not be negative")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("RetryAttempts must be greater than 0")
	}
	return nil
}
