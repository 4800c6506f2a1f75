package config

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Host is the bind address; empty listens on all interfaces.
	Host string
	// Port is the listen port, with or without a leading colon.
	Port string
	// ReadTimeout bounds reading a whole request, body included.
	ReadTimeout time.Duration
	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration
	// IdleTimeout bounds keep-alive connections between requests.
	IdleTimeout time.Duration
	// ShutdownTimeout bounds draining in-flight requests on SIGTERM. The email
	// queue drains after it, under DispatchConfig.ShutdownTimeout.
	ShutdownTimeout time.Duration
}

// LoadServerConfigFromEnv loads listener configuration from SERVER_* variables.
func LoadServerConfigFromEnv() ServerConfig {
	return ServerConfig{
		Host:              GetEnv("SERVER_HOST", ""),
		Port:              GetEnv("SERVER_PORT", ":8080"),
		ReadTimeout:       GetEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: GetEnvDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
		WriteTimeout:      GetEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       GetEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   GetEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// GetAddress returns the listen address (host:port).
func (c ServerConfig) GetAddress() string {
	port := strings.TrimPrefix(c.Port, ":")
	if c.Host == "" {
		return ":" + port
	}
	return net.JoinHostPort(c.Host, port)
}

// HTTPServer returns an http.Server for handler with the configured timeouts.
func (c ServerConfig) HTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              c.GetAddress(),
		Handler:           handler,
		ReadTimeout:       c.ReadTimeout,
		ReadHeaderTimeout: c.ReadHeaderTimeout,
		WriteTimeout:      c.WriteTimeout,
		IdleTimeout:       c.IdleTimeout,
	}
}

// Validate validates listener configuration.
func (c ServerConfig) Validate() error {
	port, err := strconv.Atoi(strings.TrimPrefix(c.Port, ":"))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %q", c.Port)
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 {
		return fmt.Errorf("read, write and idle timeouts must be greater than 0")
	}
	if c.ReadHeaderTimeout <= 0 || c.ReadHeaderTimeout > c.ReadTimeout {
		return fmt.Errorf("ReadHeaderTimeout must be in (0, ReadTimeout]")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("ShutdownTimeout must be greater than 0")
	}
	return nil
}
