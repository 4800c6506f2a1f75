package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LinkType selects where a consumed link lands.
type LinkType string

const (
	// TypeReview links to a review page.
	TypeReview LinkType = "review"
	// TypeCalendar links to the shared calendar.
	TypeCalendar LinkType = "calendar"
	// TypeGoal links to a goal page.
	TypeGoal LinkType = "goal"
)

// Valid reports whether t is a known link type.
func (t LinkType) Valid() bool {
	switch t {
	case TypeReview, TypeCalendar, TypeGoal:
		return true
	}
	return false
}

// MagicLink is a single-use login link mailed to a member.
// Matches the magic_links table schema.
type MagicLink struct {
	ID        string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	UserID    string     `gorm:"column:user_id;type:varchar(36);not null;index:idx_magic_links_user_id"`
	ReviewID  *string    `gorm:"column:review_id;type:varchar(36);index:idx_magic_links_review_id"`
	Token     string     `gorm:"column:token;type:varchar(64);not null;uniqueIndex:idx_magic_links_token"`
	Type      LinkType   `gorm:"column:type;type:varchar(16);not null"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;not null"`
}

// TableName specifies the table name for GORM.
func (MagicLink) TableName() string {
	return "magic_links"
}

// BeforeCreate assigns an id to new links.
func (l *MagicLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// ValidAt reports whether the link can still be consumed at now.
func (l *MagicLink) ValidAt(now time.Time) bool {
	return l.UsedAt == nil && l.ExpiresAt.After(now)
}
