package models

import (
	"time"
)

type Restaurant struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Tel          string    `json:"tel"`
	Address      string    `json:"address"`
	OpeningHours string    `json:"opening_hours"`
	Description  string    `gorm:"type:text" json:"description"` // Markdown
	Image        string    `json:"image"`
	ViewCounts   int       `gorm:"not null;default:0" json:"view_counts"`
	CategoryID   uint      `gorm:"not null;index" json:"category_id"`
	Category     Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
