package model

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// CreateMemberRequest is the body of POST /members and POST /setup.
type CreateMemberRequest struct {
	Email    string `json:"email"    binding:"required"`
	Name     string `json:"name"     binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateRoleRequest is the body of PUT /members/:id/role.
type UpdateRoleRequest struct {
	Role Role `json:"role" binding:"required"`
}

// MemberResponse wraps a single member.
type MemberResponse struct {
	Member User `json:"member"`
}

// ListMembersResponse wraps the member list.
type ListMembersResponse struct {
	Members []User `json:"members"`
}
