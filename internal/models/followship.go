package models

import (
	"time"
)

// Followship: FollowerID follows FollowingID.
type Followship struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;index;uniqueIndex:idx_follower_following" json:"follower_id"`
	Follower    User      `gorm:"foreignKey:FollowerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	FollowingID uint      `gorm:"not null;index;uniqueIndex:idx_follower_following" json:"following_id"`
	Following   User      `gorm:"foreignKey:FollowingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
