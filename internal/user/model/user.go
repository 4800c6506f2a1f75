package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a member's permission level.
type Role string

const (
	// RoleAdmin may administer members and email settings.
	RoleAdmin Role = "admin"
	// RoleMember is a regular account.
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User represents a member account.
// Matches the users table schema.
type User struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)"                          json:"id"`
	Email        string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex:idx_users_email" json:"email"`
	Name         string    `gorm:"column:name;type:varchar(255);not null"                         json:"name"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255);not null"                json:"-"`
	Role         Role      `gorm:"column:role;type:varchar(16);not null"                          json:"role"`
	IsActive     bool      `gorm:"column:is_active;not null;index:idx_users_is_active"            json:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"                                     json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"                                     json:"-"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an id to new users.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
