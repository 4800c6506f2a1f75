package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Author identifies who wrote a comment: a MemberAuthor or a GuestAuthor.
type Author interface {
	author()
}

// MemberAuthor is an account author.
type MemberAuthor struct {
	UserID string
}

func (MemberAuthor) author() {}

// GuestAuthor is a public-link author known only by the name they typed.
type GuestAuthor struct {
	Name string
}

func (GuestAuthor) author() {}

// Comment is one entry of a review's history. Every state change writes
// exactly one comment, so the table doubles as the audit log.
// Matches the comments table schema.
type Comment struct {
	ID         string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	ReviewID   string     `gorm:"column:review_id;type:varchar(36);not null;index:idx_comments_review_id"`
	UserID     *string    `gorm:"column:user_id;type:varchar(36)"`
	GuestName  *string    `gorm:"column:guest_name;type:varchar(255)"`
	ActionType ActionType `gorm:"column:action_type;type:varchar(16);not null"`
	Content    string     `gorm:"column:content;type:text;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null;index:idx_comments_created_at"`
}

// TableName specifies the table name for GORM.
func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate assigns an id to new comments.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// NewComment builds a history entry for reviewID.
func NewComment(reviewID string, author Author, action ActionType, content string) *Comment {
	c := &Comment{ReviewID: reviewID, ActionType: action, Content: content}
	switch a := author.(type) {
	case MemberAuthor:
		id := a.UserID
		c.UserID = &id
	case GuestAuthor:
		name := a.Name
		c.GuestName = &name
	}
	return c
}

// Author returns the comment's author variant.
func (c *Comment) Author() Author {
	if c.UserID != nil {
		return MemberAuthor{UserID: *c.UserID}
	}
	name := ""
	if c.GuestName != nil {
		name = *c.GuestName
	}
	return GuestAuthor{Name: name}
}
