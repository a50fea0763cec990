package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	// RoleAdmin is the platform-wide administrator role class. It grants
	// implicit admin access to any workspace without a membership entry.
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID              uint64     `gorm:"primarykey" json:"id"`
	Name            string     `gorm:"type:varchar(100);not null" json:"name"`
	Email           string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    string     `gorm:"type:varchar(255);not null" json:"-"`
	Phone           string     `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Role            UserRole   `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Status          UserStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	IsEmailVerified bool       `gorm:"not null;default:false" json:"is_email_verified"`
	LastLogin       *time.Time `json:"last_login,omitempty"`

	DefaultWorkspaceID *uint64 `json:"default_workspace_id,omitempty"`

	// At most one refresh token is valid per user; only its SHA-256 hash
	// is stored. Cleared on logout and password reset.
	RefreshTokenHash string `gorm:"type:varchar(64)" json:"-"`

	ResetTokenHash   string     `gorm:"type:varchar(64)" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships []WorkspaceMember `gorm:"foreignKey:UserID" json:"-"`
	Credits     []Credit          `gorm:"foreignKey:UserID" json:"-"`
}

// IsActive reports whether the account may authenticate. A non-active
// user must fail verification even with a valid token.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
