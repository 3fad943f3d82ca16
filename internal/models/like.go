package models

import (
	"time"
)

// Like is independent of Favorite; a user may do both to the same restaurant.
type Like struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index;uniqueIndex:idx_like_user_restaurant" json:"user_id"`
	User         User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	RestaurantID uint       `gorm:"not null;index;uniqueIndex:idx_like_user_restaurant" json:"restaurant_id"`
	Restaurant   Restaurant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"restaurant"`
	CreatedAt    time.Time  `json:"created_at"`
}
