package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mschmoyer/schmo-store-front-sub003/config"
	"gorm.io/gorm"
)

// Store is one tenant of the platform. Everything the integration subsystem
// touches is scoped by StoreId.
type Store struct {
	ID        uuid.UUID `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:255" json:"email"`
	Domain    string    `gorm:"size:255" json:"domain"`
	Timezone  string    `gorm:"size:50" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func GetStoreById(ctx context.Context, storeId string) (*Store, error) {
	db := config.GetDB()
	var store Store
	if err := db.WithContext(ctx).Where("id = ?", storeId).Take(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}
