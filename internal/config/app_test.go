package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadAppConfigFromEnv_DefaultValues(t *testing.T) {
	restore := setupAndRestoreEnv(t, map[string]string{
		"APP_BASE_URL":          "",
		"EMAIL_MONTHLY_LIMIT":   "",
		"MAGIC_LINK_TTL_DAYS":   "",
		"GUEST_APPROVAL_POLICY": "",
	})
	defer restore()

	cfg := LoadAppConfigFromEnv()
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 3000, cfg.EmailMonthlyLimit)
	assert.Equal(t, 7, cfg.MagicLinkTTLDays)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.MagicSessionTTL)
	assert.Equal(t, GuestApprovalTerminal, cfg.GuestApprovalPolicy)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadAppConfigFromEnv_TrimsTrailingSlash(t *testing.T) {
	restore := setupAndRestoreEnv(t, map[string]string{
		"APP_BASE_URL": "https://review.example.com/",
	})
	defer restore()

	cfg := LoadAppConfigFromEnv()
	assert.Equal(t, "https://review.example.com", cfg.BaseURL)
}

func TestAppConfig_Validate(t *testing.T) {
	base := AppConfig{
		BaseURL:             "https://review.example.com",
		EmailMonthlyLimit:   3000,
		MagicLinkTTLDays:    7,
		SessionTTL:          time.Hour,
		MagicSessionTTL:     time.Hour,
		GuestApprovalPolicy: GuestApprovalLog,
	}

	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(c *AppConfig) {}},
		{name: "relative base url", mutate: func(c *AppConfig) { c.BaseURL = "/reviews" }, wantErr: "APP_BASE_URL"},
		{name: "negative limit", mutate: func(c *AppConfig) { c.EmailMonthlyLimit = -1 }, wantErr: "EmailMonthlyLimit"},
		{name: "zero ttl days", mutate: func(c *AppConfig) { c.MagicLinkTTLDays = 0 }, wantErr: "MagicLinkTTLDays"},
		{name: "zero session ttl", mutate: func(c *AppConfig) { c.SessionTTL = 0 }, wantErr: "session TTLs"},
		{name: "unknown policy", mutate: func(c *AppConfig) { c.GuestApprovalPolicy = "maybe" }, wantErr: "GUEST_APPROVAL_POLICY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDispatchConfig_Validate(t *testing.T) {
	cfg := DispatchConfig{
		Workers:          1,
		BufferSize:       8,
		ShutdownTimeout:  time.Second,
		SendTimeout:      time.Second,
		SettingsCacheTTL: 0,
		RetryAttempts:    1,
	}
	assert.NoError(t, cfg.Validate())

	cfg.BufferSize = 0
	assert.Error(t, cfg.Validate())
}
