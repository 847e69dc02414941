package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a top-level catalog node (e.g. "shoes").
type Category struct {
	ID           uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string        `gorm:"column:name;not null"`
	Slug         string        `gorm:"column:slug;not null;uniqueIndex"`
	ImageOrdinal int           `gorm:"column:image_ordinal;not null;default:0"`
	SubCategories []SubCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Brands       []Brand       `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
