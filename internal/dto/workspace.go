package dto

import (
	"time"

	"github.com/prepbuddy/prepbuddy-api/internal/models"
)

// WorkspaceMemberDTO represents a member within a workspace
type WorkspaceMemberDTO struct {
	User     UserDTO              `json:"user"`
	Role     models.WorkspaceRole `json:"role"`
	Status   models.MemberStatus  `json:"status"`
	JoinedAt time.Time            `json:"joined_at"`
}

// WorkspaceDTO represents a workspace with its members
type WorkspaceDTO struct {
	ID              uint64                 `json:"id"`
	Name            string                 `json:"name"`
	Slug            string                 `json:"slug"`
	Description     string                 `json:"description,omitempty"`
	OwnerID         uint64                 `json:"owner_id"`
	Type            models.WorkspaceType   `json:"type"`
	Status          models.WorkspaceStatus `json:"status"`
	ActiveMemberIDs models.UserIDList      `json:"active_member_ids"`
	Members         []WorkspaceMemberDTO   `json:"members"`
	CreatedAt       time.Time              `json:"created_at"`
}

// ToWorkspaceMemberDTO converts a member to its public shape
func ToWorkspaceMemberDTO(member models.WorkspaceMember) WorkspaceMemberDTO {
	return WorkspaceMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		Status:   member.Status,
		JoinedAt: member.JoinedAt,
	}
}

// ToWorkspaceDTO converts a workspace with members to its public shape
func ToWorkspaceDTO(ws models.Workspace) WorkspaceDTO {
	members := make([]WorkspaceMemberDTO, len(ws.Members))
	for i, m := range ws.Members {
		members[i] = ToWorkspaceMemberDTO(m)
	}

	return WorkspaceDTO{
		ID:              ws.ID,
		Name:            ws.Name,
		Slug:            ws.Slug,
		Description:     ws.Description,
		OwnerID:         ws.OwnerID,
		Type:            ws.Type,
		Status:          ws.Status,
		ActiveMemberIDs: ws.ActiveMemberIDs,
		Members:         members,
		CreatedAt:       ws.CreatedAt,
	}
}

// ToWorkspaceDTOs converts a slice of workspaces
func ToWorkspaceDTOs(workspaces []models.Workspace) []WorkspaceDTO {
	dtos := make([]WorkspaceDTO, len(workspaces))
	for i, ws := range workspaces {
		dtos[i] = ToWorkspaceDTO(ws)
	}
	return dtos
}
