package models

import "time"

type WorkspaceRole string

const (
	WorkspaceRoleOwner  WorkspaceRole = "owner"
	WorkspaceRoleAdmin  WorkspaceRole = "admin"
	WorkspaceRoleMember WorkspaceRole = "member"
	WorkspaceRoleRead   WorkspaceRole = "read"
)

// CanManageMembers reports whether the role may mutate the members list.
func (r WorkspaceRole) CanManageMembers() bool {
	return r == WorkspaceRoleOwner || r == WorkspaceRoleAdmin
}

// NormalizeWorkspaceRole maps legacy role names onto the current set.
// Empty or unrecognized input defaults to member; owner is never
// assignable through input, only through workspace creation.
func NormalizeWorkspaceRole(role string) WorkspaceRole {
	switch role {
	case "admin":
		return WorkspaceRoleAdmin
	case "read", "viewer":
		return WorkspaceRoleRead
	default:
		return WorkspaceRoleMember
	}
}

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

type WorkspaceMember struct {
	WorkspaceID uint64        `gorm:"primarykey" json:"workspace_id"`
	UserID      uint64        `gorm:"primarykey" json:"user_id"`
	Role        WorkspaceRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Status      MemberStatus  `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	JoinedAt    time.Time     `json:"joined_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
