package model

// Status is the lifecycle state of a review.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusInReview Status = "in_review"
	StatusShared   Status = "shared"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusInReview, StatusShared, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// AcceptsVerdicts reports whether reviewers may approve or reject in this state.
// Drafts are not sent yet; approved and rejected reviews only reopen on resubmit.
func (s Status) AcceptsVerdicts() bool {
	switch s {
	case StatusPending, StatusInReview, StatusShared:
		return true
	}
	return false
}

// AssigneeStatus is one reviewer's verdict.
type AssigneeStatus string

const (
	AssigneePending  AssigneeStatus = "pending"
	AssigneeApproved AssigneeStatus = "approved"
	AssigneeRejected AssigneeStatus = "rejected"
)

// Aggregate derives a review status from its assignees' verdicts: any
// rejection wins, a non-empty set of approvals approves, anything else is
// still in review. An empty set never approves.
func Aggregate(verdicts []AssigneeStatus) Status {
	approved := 0
	for _, v := range verdicts {
		switch v {
		case AssigneeRejected:
			return StatusRejected
		case AssigneeApproved:
			approved++
		}
	}
	if approved > 0 && approved == len(verdicts) {
		return StatusApproved
	}
	return StatusInReview
}

// GuestApprovalPolicy decides what a public-link approval does to the status.
type GuestApprovalPolicy string

const (
	// GuestApprovalTerminal approves the review outright.
	GuestApprovalTerminal GuestApprovalPolicy = "terminal"
	// GuestApprovalLog records the approval in the history only.
	GuestApprovalLog GuestApprovalPolicy = "log"
)
