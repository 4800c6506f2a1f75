package model

import userModel "github.com/festy23/reviewdesk/internal/user/model"

// Principal is the authenticated party behind a request. It is either a
// Member (session cookie or consumed magic link) or a Guest (public token).
type Principal interface {
	principal()
}

// Member is a logged-in account.
type Member struct {
	UserID string         `json:"id"`
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Role   userModel.Role `json:"role"`
}

func (Member) principal() {}

// IsAdmin reports whether the member has the admin role.
func (m Member) IsAdmin() bool {
	return m.Role == userModel.RoleAdmin
}

// Guest is a holder of one review's public token. Name is self-declared.
type Guest struct {
	ReviewID string `json:"review_id"`
	Name     string `json:"name"`
}

func (Guest) principal() {}

// MemberFromUser builds the principal for an account.
func MemberFromUser(u *userModel.User) Member {
	return Member{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
