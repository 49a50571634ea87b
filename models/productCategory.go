package models

import "time"

// DefaultCategoryName is guaranteed to exist for every store before any
// product upsert; products without a usable provider category land here.
const DefaultCategoryName = "Other"

// ProductCategory is keyed by (store_id, name); categories are created
// lazily while reconciling products.
type ProductCategory struct {
	ID        int       `gorm:"primary_key" json:"id"`
	StoreId   string    `gorm:"uniqueIndex:idx_category_name,priority:1;not null" json:"store_id"`
	Name      string    `gorm:"uniqueIndex:idx_category_name,priority:2;size:100;not null" json:"name" binding:"required"`
	Slug      string    `gorm:"index;size:120" json:"slug"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
