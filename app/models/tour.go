package models

import "time"

type Tour struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OperatorID  uint      `gorm:"not null;index" json:"operator_id"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name"`
	Destination string    `gorm:"type:varchar(150);default:'';index" json:"destination"`
	IsPublished bool      `gorm:"default:false;index" json:"is_published"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
