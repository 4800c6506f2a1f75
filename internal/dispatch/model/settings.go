package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailSettings is the SMTP account used for outbound mail.
// Matches the email_settings table schema.
type EmailSettings struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)"    json:"id"`
	SMTPHost     string    `gorm:"column:smtp_host;type:varchar(255);not null" json:"smtp_host"`
	SMTPPort     int       `gorm:"column:smtp_port;not null"               json:"smtp_port"`
	EmailAddress string    `gorm:"column:email_address;type:varchar(255);not null" json:"email_address"`
	AppPassword  string    `gorm:"column:app_password;type:varchar(255);not null" json:"-"`
	FromName     string    `gorm:"column:from_name;type:varchar(255)"      json:"from_name"`
	IsActive     bool      `gorm:"column:is_active;not null"               json:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"              json:"created_at"`
}

// TableName specifies the table name for GORM.
func (EmailSettings) TableName() string {
	return "email_settings"
}

// BeforeCreate assigns an id to new settings.
func (s *EmailSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Email is one outbound message.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Message is a queued request to mail a stored notification.
type Message struct {
	NotificationID string
	// WithMagicLink mints a single-use login link for the recipient.
	WithMagicLink bool
}
