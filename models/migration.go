package models

import (
	"log"

	"github.com/mschmoyer/schmo-store-front-sub003/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Store{}, &User{},
		&Warehouse{}, &InventoryLocation{},
		&Product{}, &ProductCategory{},
		&Integration{}, &IntegrationSyncRun{},
		&IntegrationLog{}, &IntegrationAlert{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
