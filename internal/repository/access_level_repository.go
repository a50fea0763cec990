package repository

import (
	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"gorm.io/gorm"
)

// GormAccessLevelRepository is a GORM implementation of AccessLevelRepository
type GormAccessLevelRepository struct {
	db *gorm.DB
}

// NewAccessLevelRepository creates a new AccessLevelRepository
func NewAccessLevelRepository(db *gorm.DB) AccessLevelRepository {
	return &GormAccessLevelRepository{db: db}
}

// FindByUserID finds the user's access level
func (r *GormAccessLevelRepository) FindByUserID(userID uint64) (*models.AccessLevel, error) {
	var level models.AccessLevel
	if err := r.db.Where("user_id = ?", userID).First(&level).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

// FirstOrCreate materializes the access level with the given defaults
// unless a record already exists for the user. Two concurrent first
// touches race on the user_id unique index; the loser re-reads the row
// the winner inserted instead of surfacing the duplicate-key error.
func (r *GormAccessLevelRepository) FirstOrCreate(level *models.AccessLevel) error {
	err := r.db.Where(models.AccessLevel{UserID: level.UserID}).
		Attrs(*level).
		FirstOrCreate(level).Error
	if err == nil {
		return nil
	}

	var existing models.AccessLevel
	if readErr := r.db.Where("user_id = ?", level.UserID).First(&existing).Error; readErr == nil {
		*level = existing
		return nil
	}
	return err
}

// Save persists entitlement changes. The cached credit balance is left
// untouched: it only moves through the credit repository's atomic
// increment path.
func (r *GormAccessLevelRepository) Save(level *models.AccessLevel) error {
	return r.db.Model(level).
		Select("plan", "can_create_workspace", "max_workspaces",
			"can_invite_members", "max_team_members",
			"can_export_data", "can_access_analytics").
		Updates(level).Error
}
