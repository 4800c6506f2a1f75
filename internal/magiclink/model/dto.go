package model

import "time"

// IssueRequest describes a link to mint.
type IssueRequest struct {
	UserID   string
	ReviewID *string
	TTLDays  int
	Type     LinkType
}

// Resolution is the outcome of consuming a link.
type Resolution struct {
	UserID           string
	ReviewID         *string
	Type             LinkType
	SessionID        string
	SessionExpiresAt time.Time
}

// RedirectPath returns the in-app page the member lands on.
func (r *Resolution) RedirectPath() string {
	if r.ReviewID != nil && *r.ReviewID != "" {
		return "/reviews/" + *r.ReviewID
	}
	return "/dashboard"
}
