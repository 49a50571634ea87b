package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int             `gorm:"primary_key" json:"id"`
	StoreId       string          `gorm:"uniqueIndex:idx_product_external,priority:1;not null" json:"store_id"`
	ExternalId    string          `gorm:"uniqueIndex:idx_product_external,priority:2;size:128;not null" json:"external_id"`
	Name          string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Description   string          `gorm:"type:text" json:"description"`
	CategoryId    int             `gorm:"index;not null;default:0" json:"category_id"`
	Sku           string          `gorm:"index;size:100;not null" json:"sku" binding:"required"`
	Barcode       string          `gorm:"index;size:100" json:"barcode"`
	SalesPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	StockOnHand   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock_on_hand"`
	WeightGrams   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"weight_grams"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
