package models

import (
	"time"
)

type Comment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Text         string     `gorm:"type:text;not null" json:"text"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	User         User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	RestaurantID uint       `gorm:"not null;index" json:"restaurant_id"`
	Restaurant   Restaurant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"restaurant"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
