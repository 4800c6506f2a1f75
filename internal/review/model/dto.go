package model

import "time"

// List filters accepted by GET /reviews.
const (
	FilterAssigned = "assigned"
	FilterCreated  = "created"
)

// CreateReviewRequest is the body of POST /reviews.
type CreateReviewRequest struct {
	Title       string     `json:"title"        binding:"required"`
	Description string     `json:"description"`
	TargetURLs  []string   `json:"target_urls"`
	ContentType string     `json:"content_type"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeIDs []string   `json:"assignee_ids"`
	TagIDs      []string   `json:"tag_ids"`
	GoalIDs     []string   `json:"goal_ids"`
	// Draft keeps the review unsent. Otherwise assignees are notified at once.
	Draft bool `json:"draft"`
}

// UpdateReviewRequest is the body of PATCH /reviews/:id.
type UpdateReviewRequest struct {
	Title       string     `json:"title"       binding:"required"`
	Description string     `json:"description"`
	TargetURLs  []string   `json:"target_urls"`
	DueDate     *time.Time `json:"due_date"`
}

// NotifyRequest is the body of POST /reviews/:id/notify.
type NotifyRequest struct {
	// UserIDs are added as assignees before notifying.
	UserIDs []string   `json:"user_ids"`
	Message string     `json:"message"`
	DueDate *time.Time `json:"due_date"`
}

// VerdictRequest is the body of the member approve and reject endpoints.
type VerdictRequest struct {
	// Reason is required when rejecting and optional when approving.
	Reason           string `json:"reason"`
	SendNotification *bool  `json:"send_notification"`
}

// Notify reports whether the requester should hear about the verdict. It
// defaults to true.
func (r VerdictRequest) Notify() bool {
	return r.SendNotification == nil || *r.SendNotification
}

// GuestVerdictRequest is the body of POST /p/:token/approve and /reject.
type GuestVerdictRequest struct {
	GuestName        string `json:"guest_name"`
	Reason           string `json:"reason"`
	SendNotification *bool  `json:"send_notification"`
}

// Notify reports whether the requester should hear about the verdict.
func (r GuestVerdictRequest) Notify() bool {
	return r.SendNotification == nil || *r.SendNotification
}

// CommentRequest is the body of comment endpoints. GuestName is used on the
// public routes only.
type CommentRequest struct {
	Content   string `json:"content"`
	GuestName string `json:"guest_name"`
}

// ResubmitRequest is the body of resubmit endpoints.
type ResubmitRequest struct {
	Title       string `json:"title"       binding:"required"`
	Description string `json:"description"`
	GuestName   string `json:"guest_name"`
}

// ListFilter narrows GET /reviews.
type ListFilter struct {
	// Filter is FilterAssigned (default) or FilterCreated.
	Filter string
	Status Status
	Search string
}

// ReviewSummary is a row of the review list.
type ReviewSummary struct {
	Review
	RequesterName  string          `json:"requester_name"`
	ApprovedCount  int64           `json:"approved_count"`
	TotalAssignees int64           `json:"total_assignees"`
	AssigneeStatus *AssigneeStatus `json:"assignee_status,omitempty"`
}

// AssigneeView is an assignee with display data.
type AssigneeView struct {
	UserID     string         `json:"user_id"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Status     AssigneeStatus `json:"status"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
}

// CommentView is a history entry with its author's display name.
type CommentView struct {
	ID         string     `json:"id"`
	UserID     *string    `json:"user_id,omitempty"`
	AuthorName string     `json:"author_name"`
	IsGuest    bool       `json:"is_guest"`
	ActionType ActionType `json:"action_type"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ReviewDetail is the full view of a review.
type ReviewDetail struct {
	Review
	TargetURLs    []string       `json:"target_urls"`
	RequesterName string         `json:"requester_name"`
	Assignees     []AssigneeView `json:"assignees"`
	Comments      []CommentView  `json:"comments"`
	TagIDs        []string       `json:"tag_ids"`
	GoalIDs       []string       `json:"goal_ids"`
	// ShareURL is only filled for the requester and admins.
	ShareURL string `json:"share_url,omitempty"`
}

// ReviewResponse wraps a review detail.
type ReviewResponse struct {
	Review *ReviewDetail `json:"review"`
}

// ListReviewsResponse is the body of GET /reviews.
type ListReviewsResponse struct {
	Reviews []ReviewSummary `json:"reviews"`
}

// NotifyResponse reports how many emails were queued.
type NotifyResponse struct {
	Queued int `json:"queued"`
}

// ShareResponse carries the public link of a review.
type ShareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}
