package models

import "time"

// Restaurant is a listed restaurant owned by a user. Listing content itself
// lives in the page layer; billing only needs identity and display data.
type Restaurant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name"`
	Destination string    `gorm:"type:varchar(150);default:'';index" json:"destination"`
	IsPublished bool      `gorm:"default:false;index" json:"is_published"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
