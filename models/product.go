package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog entry. Price is kept in the smallest currency unit
// (e.g. cents) to avoid float rounding in sums.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"-"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	Stock       int            `gorm:"not null" json:"stock"`
	Category    string         `gorm:"size:128;not null;index" json:"category"`
	IsFeatured  bool           `gorm:"default:false;index" json:"isFeatured"`
	Ratings     float64        `gorm:"default:0" json:"ratings"`
	NumReviews  int            `gorm:"default:0" json:"numOfReviews"`
	Photos      []ProductPhoto `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"photos"`
}

// ProductPhoto records one stored object for a product. Key is the object
// storage key so deletes can clean up the bucket.
type ProductPhoto struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	CreatedAt   time.Time `json:"-"`
	ProductID   uint      `gorm:"index;not null" json:"-"`
	URL         string    `gorm:"size:512;not null" json:"url"`
	Key         string    `gorm:"size:512;not null" json:"key"`
	ContentType string    `gorm:"size:128" json:"-"`
}
