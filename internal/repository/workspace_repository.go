package repository

import (
	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"gorm.io/gorm"
)

// GormWorkspaceRepository is a GORM implementation of WorkspaceRepository
type GormWorkspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &GormWorkspaceRepository{db: db}
}

// Create creates a workspace with its initial members list. The derived
// active-member index is computed from the members before the workspace
// row is written, inside the same transaction.
func (r *GormWorkspaceRepository) Create(ws *models.Workspace, members []models.WorkspaceMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		ws.ActiveMemberIDs = models.ActiveMemberUserIDs(members, ws.OwnerID)

		if err := tx.Create(ws).Error; err != nil {
			return err
		}

		for i := range members {
			members[i].WorkspaceID = ws.ID
		}
		if len(members) > 0 {
			if err := tx.Create(&members).Error; err != nil {
				return err
			}
		}

		ws.Members = members
		return nil
	})
}

// FindByID finds a workspace with members preloaded in join order
func (r *GormWorkspaceRepository) FindByID(id uint64) (*models.Workspace, error) {
	var ws models.Workspace
	err := r.db.
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Members.User").
		First(&ws, id).Error
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// ListForUser lists workspaces the user owns or is an active member of
func (r *GormWorkspaceRepository) ListForUser(userID uint64) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := r.db.
		Distinct("workspaces.*").
		Joins("LEFT JOIN workspace_members m ON m.workspace_id = workspaces.id AND m.user_id = ? AND m.status = ?", userID, models.MemberStatusActive).
		Where("workspaces.owner_id = ? OR m.user_id IS NOT NULL", userID).
		Order("workspaces.created_at ASC").
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Members.User").
		Find(&workspaces).Error
	if err != nil {
		return nil, err
	}
	return workspaces, nil
}

// CountActiveForUser counts active workspaces the user owns or is an
// active member of
func (r *GormWorkspaceRepository) CountActiveForUser(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Workspace{}).
		Distinct("workspaces.id").
		Joins("LEFT JOIN workspace_members m ON m.workspace_id = workspaces.id AND m.user_id = ? AND m.status = ?", userID, models.MemberStatusActive).
		Where("workspaces.status = ?", models.WorkspaceStatusActive).
		Where("workspaces.owner_id = ? OR m.user_id IS NOT NULL", userID).
		Count(&count).Error
	return count, err
}

// CountAll counts all workspaces
func (r *GormWorkspaceRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.Workspace{}).Count(&count).Error
	return count, err
}

// AddMember appends a member entry and refreshes the derived index
func (r *GormWorkspaceRepository) AddMember(wsID uint64, member *models.WorkspaceMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		member.WorkspaceID = wsID
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		return refreshActiveMemberIndex(tx, wsID)
	})
}

// UpdateMemberStatus flips a member entry's status and refreshes the
// derived index
func (r *GormWorkspaceRepository) UpdateMemberStatus(wsID, userID uint64, status models.MemberStatus) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.WorkspaceMember{}).
			Where("workspace_id = ? AND user_id = ?", wsID, userID).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return refreshActiveMemberIndex(tx, wsID)
	})
}

// RemoveMember deletes a member entry and refreshes the derived index
func (r *GormWorkspaceRepository) RemoveMember(wsID, userID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("workspace_id = ? AND user_id = ?", wsID, userID).
			Delete(&models.WorkspaceMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return refreshActiveMemberIndex(tx, wsID)
	})
}

// refreshActiveMemberIndex recomputes the derived active-member index
// from the current members list and writes it back on the workspace row.
// Callers run it inside the same transaction as the members mutation so
// readers never observe a stale index.
func refreshActiveMemberIndex(tx *gorm.DB, wsID uint64) error {
	var ws models.Workspace
	if err := tx.First(&ws, wsID).Error; err != nil {
		return err
	}

	var members []models.WorkspaceMember
	if err := tx.Where("workspace_id = ?", wsID).Find(&members).Error; err != nil {
		return err
	}

	return tx.Model(&ws).
		Update("active_member_ids", models.ActiveMemberUserIDs(members, ws.OwnerID)).Error
}
