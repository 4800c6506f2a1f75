// Package retry runs an operation again with exponential backoff until it
// succeeds, hits a non-retryable error, or runs out of attempts.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Config holds retry strategy configuration.
type Config struct {
	// MaxAttempts is the total number of attempts, the first one included.
	MaxAttempts int
	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration
	// Multiplier is the exponential backoff factor.
	Multiplier float64
	// RetryableErrors are case-insensitive substrings of retryable error
	// messages. Empty means every error is retried.
	RetryableErrors []string
	// OnRetry, if set, is called before each wait with the failed attempt
	// number (1-based), its error and the upcoming delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     5,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		Multiplier:      2.0,
		RetryableErrors: []string{},
	}
}

// Do executes fn with retry logic.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult executes fn with retry logic and returns its result.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T

	if cfg.MaxAttempts <= 0 {
		return zero, fmt.Errorf("MaxAttempts must be greater than 0")
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryableError(err, cfg) || attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := addJitter(calculateDelay(attempt, cfg))
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// calculateDelay returns InitialDelay * Multiplier^attempt capped at MaxDelay.
func calculateDelay(attempt int, cfg Config) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// addJitter spreads delay by ±10%.
func addJitter(delay time.Duration) time.Duration {
	//nolint:gosec // jitter has no security requirement
	jitter := float64(delay) * 0.1 * (rand.Float64()*2 - 1)
	return delay + time.Duration(jitter)
}

// IsRetryableError reports whether err matches one of cfg.RetryableErrors.
func IsRetryableError(err error, cfg Config) bool {
	if err == nil {
		return false
	}
	if len(cfg.RetryableErrors) == 0 {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range cfg.RetryableErrors {
		if strings.Contains(msg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// DefaultPostgresRetryableErrors returns transient PostgreSQL connection errors.
func DefaultPostgresRetryableErrors() []string {
	return []string{
		"connection refused",
		"i/o timeout",
		"connection reset",
		"server closed the connection",
		"too many connections",
		"the database system is starting up",
		"no connection could be made",
		"network is unreachable",
		"dial tcp",
		"connection timed out",
	}
}

// PostgresConfig returns retry configuration for opening PostgreSQL connections.
func PostgresConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryableErrors = DefaultPostgresRetryableErrors()
	return cfg
}

// DefaultSMTPRetryableErrors returns transient SMTP failures: network errors
// and 4xx reply codes, which servers use for "try again later".
func DefaultSMTPRetryableErrors() []string {
	return []string{
		"connection refused",
		"connection reset",
		"i/o timeout",
		"eof",
		"421 ",
		"450 ",
		"451 ",
		"452 ",
		"try again",
	}
}

// SMTPConfig returns retry configuration for mail delivery with the given
// number of attempts and a short backoff.
func SMTPConfig(attempts int) Config {
	return Config{
		MaxAttempts:     attempts,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		Multiplier:      2.0,
		RetryableErrors: DefaultSMTPRetryableErrors(),
	}
}
