// Package model defines the dashboard view types.
package model

import (
	"time"

	reviewModel "github.com/festy23/reviewdesk/internal/review/model"
)

// Limit caps each dashboard list.
const Limit = 10

// Activity is a recent history entry on a review the member takes part in.
type Activity struct {
	ID          string                 `json:"id"`
	ReviewID    string                 `json:"review_id"`
	ReviewTitle string                 `json:"review_title"`
	AuthorName  string                 `json:"author_name"`
	ActionType  reviewModel.ActionType `json:"action_type"`
	Content     string                 `json:"content"`
	CreatedAt   time.Time              `json:"created_at"`
}

// RequestStatistics counts the reviews a member requested by status.
type RequestStatistics struct {
	Total    int `json:"total"`
	Draft    int `json:"draft"`
	Open     int `json:"open"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// DashboardResponse is the body of GET /dashboard.
type DashboardResponse struct {
	// AwaitingMe lists reviews where the member's verdict is still pending.
	AwaitingMe []reviewModel.ReviewSummary `json:"awaiting_me"`
	// InProgress lists the member's own reviews that are out for review.
	InProgress     []reviewModel.ReviewSummary `json:"in_progress"`
	RecentActivity []Activity                  `json:"recent_activity"`
	Statistics     RequestStatistics           `json:"statistics"`
}
