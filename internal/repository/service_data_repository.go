package repository

import (
	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormServiceDataRepository is a GORM implementation of ServiceDataRepository
type GormServiceDataRepository struct {
	db *gorm.DB
}

// NewServiceDataRepository creates a new ServiceDataRepository
func NewServiceDataRepository(db *gorm.DB) ServiceDataRepository {
	return &GormServiceDataRepository{db: db}
}

func (r *GormServiceDataRepository) Get(key string) (*models.ServiceData, error) {
	var data models.ServiceData
	if err := r.db.Where("`key` = ?", key).First(&data).Error; err != nil {
		return nil, err
	}
	return &data, nil
}

func (r *GormServiceDataRepository) Upsert(key, accessTo, value string) error {
	data := models.ServiceData{
		Key:      key,
		AccessTo: accessTo,
		Value:    value,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_to", "value"}),
	}).Create(&data).Error
}
