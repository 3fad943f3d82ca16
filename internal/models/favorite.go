package models

import (
	"time"
)

// Favorite 收藏 - one row per (user, restaurant)
type Favorite struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index;uniqueIndex:idx_favorite_user_restaurant" json:"user_id"`
	User         User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	RestaurantID uint       `gorm:"not null;index;uniqueIndex:idx_favorite_user_restaurant" json:"restaurant_id"`
	Restaurant   Restaurant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"restaurant"`
	CreatedAt    time.Time  `json:"created_at"`
}
