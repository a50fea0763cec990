package models

import "time"

type Notification struct {
	ID     uint64 `gorm:"primarykey" json:"id"`
	UserID uint64 `gorm:"not null;index" json:"user_id"`
	Key    string `gorm:"type:varchar(50);not null" json:"key"`
	Value  string `gorm:"type:varchar(500);not null" json:"value"`
	IsRead bool   `gorm:"not null;default:false" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
