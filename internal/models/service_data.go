package models

import "time"

// ServiceData is a small key/value store for platform configuration,
// e.g. the default access level applied to new users.
type ServiceData struct {
	ID       uint64 `gorm:"primarykey" json:"id"`
	Key      string `gorm:"type:varchar(50);uniqueIndex;not null" json:"key"`
	AccessTo string `gorm:"type:varchar(50);not null;default:'default'" json:"access_to"`
	Value    string `gorm:"type:json" json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
