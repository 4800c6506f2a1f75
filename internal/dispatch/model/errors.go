package model

import "errors"

var (
	// ErrSettingsNotFound indicates no active email settings are stored.
	ErrSettingsNotFound = errors.New("email settings not configured")
	// ErrInvalidSettings indicates missing or malformed SMTP fields.
	ErrInvalidSettings = errors.New("invalid email settings")
)
