package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultContentType is stored when the requester does not classify the content.
const DefaultContentType = "other"

// Review is a request for approval of some content.
// Matches the reviews table schema.
type Review struct {
	ID          string     `gorm:"primaryKey;column:id;type:varchar(36)"                                  json:"id"`
	Title       string     `gorm:"column:title;type:varchar(500);not null"                                json:"title"`
	Description string     `gorm:"column:description;type:text"                                          json:"description"`
	TargetURL   string     `gorm:"column:target_url;type:text;not null"                                   json:"-"`
	ContentType string     `gorm:"column:content_type;type:varchar(32);not null"                          json:"content_type"`
	Status      Status     `gorm:"column:status;type:varchar(16);not null;index:idx_reviews_status"       json:"status"`
	RequesterID string     `gorm:"column:requester_id;type:varchar(36);not null;index:idx_reviews_requester_id" json:"requester_id"`
	DueDate     *time.Time `gorm:"column:due_date"                                                        json:"due_date,omitempty"`
	PublicToken *string    `gorm:"column:public_token;type:varchar(64);uniqueIndex:idx_reviews_public_token" json:"-"`
	IsLocked    bool       `gorm:"column:is_locked;not null"                                              json:"is_locked"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"                                             json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null"                                             json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Review) TableName() string {
	return "reviews"
}

// BeforeCreate assigns an id to new reviews.
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// TargetURLs splits the stored newline-joined URL list.
func (r *Review) TargetURLs() []string {
	var urls []string
	for _, line := range strings.Split(r.TargetURL, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}

// JoinTargetURLs is the storage form of a URL list.
func JoinTargetURLs(urls []string) string {
	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			kept = append(kept, u)
		}
	}
	return strings.Join(kept, "\n")
}

// ReviewAssignee is a reviewer's verdict on a review.
// Matches the review_assignees table schema.
type ReviewAssignee struct {
	ID         string         `gorm:"primaryKey;column:id;type:varchar(36)"                                       json:"id"`
	ReviewID   string         `gorm:"column:review_id;type:varchar(36);not null;uniqueIndex:idx_review_assignees_pair" json:"review_id"`
	UserID     string         `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:idx_review_assignees_pair;index:idx_review_assignees_user_id" json:"user_id"`
	Status     AssigneeStatus `gorm:"column:status;type:varchar(16);not null"                                     json:"status"`
	ReviewedAt *time.Time     `gorm:"column:reviewed_at"                                                          json:"reviewed_at,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null"                                                  json:"created_at"`
}

// TableName specifies the table name for GORM.
func (ReviewAssignee) TableName() string {
	return "review_assignees"
}

// BeforeCreate assigns an id to new assignee rows.
func (a *ReviewAssignee) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// ReviewTag links a review to a tag.
type ReviewTag struct {
	ReviewID string `gorm:"primaryKey;column:review_id;type:varchar(36)"`
	TagID    string `gorm:"primaryKey;column:tag_id;type:varchar(36)"`
}

// TableName specifies the table name for GORM.
func (ReviewTag) TableName() string {
	return "review_tags"
}

// ReviewGoal links a review to a goal.
type ReviewGoal struct {
	ReviewID string `gorm:"primaryKey;column:review_id;type:varchar(36)"`
	GoalID   string `gorm:"primaryKey;column:goal_id;type:varchar(36)"`
}

// TableName specifies the table name for GORM.
func (ReviewGoal) TableName() string {
	return "review_goals"
}
