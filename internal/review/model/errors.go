package model

import "errors"

var (
	// ErrReviewNotFound indicates the review does not exist or the token matches nothing.
	ErrReviewNotFound = errors.New("review not found")
	// ErrTitleRequired indicates an empty title.
	ErrTitleRequired = errors.New("title is required")
	// ErrAssigneesRequired indicates a review without reviewers.
	ErrAssigneesRequired = errors.New("at least one assignee is required")
	// ErrUnknownAssignee indicates an assignee id that is not an active member.
	ErrUnknownAssignee = errors.New("assignee is not an active member")
	// ErrReasonRequired indicates a rejection without a reason.
	ErrReasonRequired = errors.New("rejection reason is required")
	// ErrGuestNameRequired indicates a guest action without a name.
	ErrGuestNameRequired = errors.New("guest name is required")
	// ErrContentRequired indicates an empty comment.
	ErrContentRequired = errors.New("comment content is required")
	// ErrInvalidStatus indicates an unknown status filter.
	ErrInvalidStatus = errors.New("invalid review status")
	// ErrRecipientsRequired indicates notify without recipients.
	ErrRecipientsRequired = errors.New("at least one recipient is required")
	// ErrNotRequester indicates the actor is not the review's requester.
	ErrNotRequester = errors.New("only the requester may perform this action")
	// ErrNotAssignee indicates the actor is not a listed assignee.
	ErrNotAssignee = errors.New("only an assignee may perform this action")
	// ErrForbidden indicates the actor has no access to the review.
	ErrForbidden = errors.New("no access to this review")
	// ErrLocked indicates the review is locked against changes.
	ErrLocked = errors.New("review is locked")
	// ErrInvalidTransition indicates the action is not allowed in the current status.
	ErrInvalidTransition = errors.New("action not allowed in current review status")
	// ErrAlreadySent indicates notifications were already sent for the draft.
	ErrAlreadySent = errors.New("review notifications already sent")
)
