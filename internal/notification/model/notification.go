package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Type is the reason a notification was raised.
type Type string

const (
	TypeReviewRequest Type = "review_request"
	TypeComment       Type = "comment"
	TypeApproval      Type = "approval"
	TypeReminder      Type = "reminder"
)

// Notification is an inbox entry for a member, optionally mailed.
// Matches the notifications table schema.
type Notification struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)"                               json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);not null;index:idx_notifications_user_id" json:"user_id"`
	ReviewID  *string   `gorm:"column:review_id;type:varchar(36);index:idx_notifications_review_id" json:"review_id,omitempty"`
	Type      Type      `gorm:"column:type;type:varchar(32);not null"                               json:"type"`
	Message   string    `gorm:"column:message;type:text;not null"                                   json:"message"`
	IsRead    bool      `gorm:"column:is_read;not null"                                             json:"is_read"`
	EmailSent bool      `gorm:"column:email_sent;not null"                                          json:"email_sent"`
	CreatedAt time.Time `gorm:"column:created_at;not null"                                          json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns an id to new notifications.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Envelope is a notification joined with what is needed to mail it.
type Envelope struct {
	Notification
	RecipientEmail string
	RecipientName  string
	ReviewTitle    string
}
