package model

// SaveSettingsRequest is the body of PUT /settings/email.
type SaveSettingsRequest struct {
	SMTPHost     string `json:"smtp_host"     binding:"required"`
	SMTPPort     int    `json:"smtp_port"     binding:"required"`
	EmailAddress string `json:"email_address" binding:"required"`
	AppPassword  string `json:"app_password"  binding:"required"`
	FromName     string `json:"from_name"`
}

// TestEmailRequest is the body of POST /settings/email/test.
type TestEmailRequest struct {
	To string `json:"to" binding:"required"`
}

// TestEmailResponse reports the outcome of a test send.
type TestEmailResponse struct {
	Sent bool `json:"sent"`
}

// SettingsResponse wraps the active settings. The password is never returned.
type SettingsResponse struct {
	Settings *EmailSettings `json:"settings"`
}
