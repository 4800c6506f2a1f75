package model

import "time"

// SessionCookie is the name of the cookie carrying the session id.
const SessionCookie = "session"

// Session is an authenticated browser session.
// Matches the sessions table schema.
type Session struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(64)"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);not null;index:idx_sessions_user_id"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index:idx_sessions_expires_at"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName specifies the table name for GORM.
func (Session) TableName() string {
	return "sessions"
}
