package models

import "time"

// Warehouse mirrors a fulfillment provider warehouse. Rows are owned by one
// store and matched on (store_id, external_id) during reconciliation.
type Warehouse struct {
	ID         int       `gorm:"primary_key" json:"id"`
	StoreId    string    `gorm:"uniqueIndex:idx_warehouse_external,priority:1;not null" json:"store_id"`
	ExternalId string    `gorm:"uniqueIndex:idx_warehouse_external,priority:2;size:128;not null" json:"external_id"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Code       string    `gorm:"size:50" json:"code"`
	Address    string    `gorm:"type:text" json:"address"`
	City       string    `gorm:"size:100" json:"city"`
	Region     string    `gorm:"size:100" json:"region"`
	Country    string    `gorm:"size:100" json:"country"`
	PostalCode string    `gorm:"size:20" json:"postal_code"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type LocationType string

const (
	LocationTypeWarehouse LocationType = "warehouse"
	LocationTypeLocation  LocationType = "location"
)

// InventoryLocation covers both provider "inventory warehouses" and the
// finer-grained locations inside them; the two listings land in one table
// distinguished by LocationType.
type InventoryLocation struct {
	ID                  int          `gorm:"primary_key" json:"id"`
	StoreId             string       `gorm:"uniqueIndex:idx_inv_location_external,priority:1;not null" json:"store_id"`
	ExternalId          string       `gorm:"uniqueIndex:idx_inv_location_external,priority:2;size:128;not null" json:"external_id"`
	WarehouseExternalId string       `gorm:"index;size:128" json:"warehouse_external_id"`
	Name                string       `gorm:"size:100;not null" json:"name"`
	Code                string       `gorm:"size:50" json:"code"`
	LocationType        LocationType `gorm:"size:20;not null;default:location" json:"location_type"`
	IsPickable          *bool        `gorm:"not null;default:true" json:"is_pickable"`
	IsActive            *bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}
