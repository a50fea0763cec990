package models

import "time"

type PlanType string

const (
	PlanFree       PlanType = "free"
	PlanBasic      PlanType = "basic"
	PlanPro        PlanType = "pro"
	PlanEnterprise PlanType = "enterprise"
)

// AccessLevel holds a user's plan entitlements and the cached credit
// balance. CurrentCredits must always equal the signed sum of the
// user's credit entries; it is only ever mutated through the atomic
// increment path in the credit repository.
type AccessLevel struct {
	ID     uint64   `gorm:"primarykey" json:"id"`
	UserID uint64   `gorm:"uniqueIndex;not null" json:"user_id"`
	Plan   PlanType `gorm:"type:varchar(20);not null;default:'free'" json:"plan"`

	CanCreateWorkspace bool `gorm:"not null;default:false" json:"can_create_workspace"`
	MaxWorkspaces      int  `gorm:"not null;default:1" json:"max_workspaces"`

	CanInviteMembers bool `gorm:"not null;default:false" json:"can_invite_members"`
	MaxTeamMembers   int  `gorm:"not null;default:1" json:"max_team_members"`

	CanExportData      bool `gorm:"not null;default:false" json:"can_export_data"`
	CanAccessAnalytics bool `gorm:"not null;default:false" json:"can_access_analytics"`

	CurrentCredits int64 `gorm:"not null;default:0" json:"current_credits"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
