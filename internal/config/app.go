package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Guest approval policies.
const (
	// GuestApprovalTerminal moves the review to approved on a guest approval.
	GuestApprovalTerminal = "terminal"
	// GuestApprovalLog only records the approval in the review history.
	GuestApprovalLog = "log"
)

// AppConfig holds review workflow settings.
type AppConfig struct {
	// BaseURL is the externally visible origin used in emailed links.
	BaseURL string
	// EmailMonthlyLimit caps outbound mail per calendar month (UTC).
	EmailMonthlyLimit int
	// MagicLinkTTLDays is how long an emailed magic link stays valid.
	MagicLinkTTLDays int
	// SessionTTL is the lifetime of a password login session.
	SessionTTL time.Duration
	// MagicSessionTTL is the lifetime of a session created from a magic link.
	MagicSessionTTL time.Duration
	// GuestApprovalPolicy is either "terminal" or "log".
	GuestApprovalPolicy string
	// CookieSecure marks the session cookie as HTTPS only.
	CookieSecure bool
}

// LoadAppConfigFromEnv loads workflow configuration from environment variables.
func LoadAppConfigFromEnv() AppConfig {
	return AppConfig{
		BaseURL:             strings.TrimRight(GetEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		EmailMonthlyLimit:   GetEnvInt("EMAIL_MONTHLY_LIMIT", 3000),
		MagicLinkTTLDays:    GetEnvInt("MAGIC_LINK_TTL_DAYS", 7),
		SessionTTL:          GetEnvDuration("SESSION_TTL", 24*time.Hour),
		MagicSessionTTL:     GetEnvDuration("MAGIC_SESSION_TTL", 7*24*time.Hour),
		GuestApprovalPolicy: GetEnv("GUEST_APPROVAL_POLICY", GuestApprovalTerminal),
		CookieSecure:        GetEnvBool("COOKIE_SECURE", false),
	}
}

// Validate validates workflow configuration.
func (c AppConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid APP_BASE_URL: %q", c.BaseURL)
	}
	if c.EmailMonthlyLimit < 0 {
		return fmt.Errorf("EmailMonthlyLimit must not be negative")
	}
	if c.MagicLinkTTLDays <= 0 {
		return fmt.Errorf("MagicLinkTTLDays must be greater than 0")
	}
	if c.SessionTTL <= 0 || c.MagicSessionTTL <= 0 {
		return fmt.Errorf("session TTLs must be greater than 0")
	}
	switch c.GuestApprovalPolicy {
	case GuestApprovalTerminal, GuestApprovalLog:
	default:
		return fmt.Errorf("invalid GUEST_APPROVAL_POLICY: %s (must be: terminal, log)", c.GuestApprovalPolicy)
	}
	return nil
}
