package fulfillsync

import (
	"context"
	"testing"

	"github.com/mschmoyer/schmo-store-front-sub003/models"
)

func TestRunAllIsolatesStageFailure(t *testing.T) {
	db := newTestDB(t)
	startProvider(t, fakeProvider{
		records: map[string][]any{
			pathInventoryWarehouses: {map[string]any{"id": "iw-1", "name": "Main"}},
			pathInventoryLocations:  {},
			pathProducts:            {map[string]any{"id": "p-1", "sku": "SKU-1", "name": "Bear"}},
			pathInventory:           {map[string]any{"sku": "SKU-1", "qty_on_hand": "2"}},
		},
		fail: map[string]bool{pathWarehouses: true},
	})
	s := newTestSyncer(t, db, "store-1")

	results, failed := s.runAll(context.Background(), DefaultEntities())
	if failed != 1 {
		t.Fatalf("failed stages = %d, want 1", failed)
	}
	if got := results[EntityWarehouses]; got != (SyncResult{}) {
		t.Fatalf("warehouses result = %+v, want empty", got)
	}
	if got := results[EntityProducts]; got.AddedCount != 1 {
		t.Fatalf("products result = %+v, want 1 added", got)
	}
	if got := results[EntityLocations]; got.AddedCount != 1 {
		t.Fatalf("locations result = %+v, want 1 added", got)
	}

	if n := countRows(t, db, &models.IntegrationLog{},
		"store_id = ? AND operation = ? AND status = ?",
		"store-1", OpSyncWarehouses, models.LogStatusFailure); n != 1 {
		t.Fatalf("warehouse failure log rows = %d, want 1", n)
	}
	if n := countRows(t, db, &models.IntegrationLog{},
		"store_id = ? AND operation = ? AND status = ?",
		"store-1", OpSyncProducts, models.LogStatusSuccess); n != 1 {
		t.Fatalf("product success log rows = %d, want 1", n)
	}
}

func TestRunAllHonorsEntitySelection(t *testing.T) {
	db := newTestDB(t)
	startProvider(t, fakeProvider{records: map[string][]any{
		pathWarehouses: {map[string]any{"id": "wh-1", "name": "DC"}},
	}})
	s := newTestSyncer(t, db, "store-1")

	results, failed := s.runAll(context.Background(), SyncEntities{Warehouses: true})
	if failed != 0 {
		t.Fatalf("failed stages = %d, want 0", failed)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v, want warehouses only", results)
	}
	if results[EntityWarehouses].AddedCount != 1 {
		t.Fatalf("warehouses result = %+v, want 1 added", results[EntityWarehouses])
	}
}

func TestExecuteSyncRunSuccess(t *testing.T) {
	db := newTestDB(t)
	startProvider(t, fakeProvider{records: map[string][]any{
		pathWarehouses:          {map[string]any{"id": "wh-1", "name": "DC"}},
		pathInventoryWarehouses: {},
		pathInventoryLocations:  {},
		pathProducts:            {map[string]any{"id": "p-1", "sku": "SKU-1", "name": "Bear"}},
		pathInventory:           {},
	}})

	integration := models.Integration{
		StoreId:       "store-1",
		Provider:      models.IntegrationProviderFulfillHub,
		Status:        models.IntegrationStatusConnected,
		AuthSecretRef: "test-key",
	}
	if err := db.Create(&integration).Error; err != nil {
		t.Fatalf("seed integration: %v", err)
	}
	run := models.IntegrationSyncRun{
		StoreId:       "store-1",
		IntegrationId: integration.ID,
		Provider:      models.IntegrationProviderFulfillHub,
		Status:        models.SyncRunStatusQueued,
		TriggeredBy:   models.SyncTriggeredManual,
		EntityTypes:   string(EncodeEntities(DefaultEntities())),
	}
	if err := db.Create(&run).Error; err != nil {
		t.Fatalf("seed run: %v", err)
	}

	results, err := executeSyncRun(context.Background(), db, &run, &integration)
	if err != nil {
		t.Fatalf("executeSyncRun: %v", err)
	}
	if results[EntityWarehouses].AddedCount != 1 {
		t.Fatalf("warehouses result = %+v, want 1 added", results[EntityWarehouses])
	}

	var updated models.IntegrationSyncRun
	if err := db.Take(&updated, run.ID).Error; err != nil {
		t.Fatalf("reload run: %v", err)
	}
	if updated.Status != models.SyncRunStatusSuccess {
		t.Fatalf("run status = %s, want success", updated.Status)
	}
	if updated.RecordsSynced != 2 {
		t.Fatalf("records synced = %d, want 2", updated.RecordsSynced)
	}
	if updated.FinishedAt == nil || updated.StartedAt == nil {
		t.Fatalf("run timestamps not set: %+v", updated)
	}

	var conn models.Integration
	if err := db.Take(&conn, integration.ID).Error; err != nil {
		t.Fatalf("reload integration: %v", err)
	}
	if conn.LastSyncAt == nil || conn.LastSuccessSyncAt == nil {
		t.Fatalf("integration sync stamps not set: %+v", conn)
	}
}

func TestExecuteSyncRunPartialOnStageFailure(t *testing.T) {
	db := newTestDB(t)
	startProvider(t, fakeProvider{
		records: map[string][]any{
			pathWarehouses:          {map[string]any{"id": "wh-1", "name": "DC"}},
			pathInventoryWarehouses: {},
			pathInventoryLocations:  {},
			pathInventory:           {},
		},
		fail: map[string]bool{pathProducts: true},
	})

	integration := models.Integration{
		StoreId:       "store-1",
		Provider:      models.IntegrationProviderFulfillHub,
		Status:        models.IntegrationStatusConnected,
		AuthSecretRef: "test-key",
	}
	if err := db.Create(&integration).Error; err != nil {
		t.Fatalf("seed integration: %v", err)
	}
	run := models.IntegrationSyncRun{
		StoreId:       "store-1",
		IntegrationId: integration.ID,
		Provider:      models.IntegrationProviderFulfillHub,
		Status:        models.SyncRunStatusQueued,
		EntityTypes:   string(EncodeEntities(DefaultEntities())),
	}
	if err := db.Create(&run).Error; err != nil {
		t.Fatalf("seed run: %v", err)
	}

	if _, err := executeSyncRun(context.Background(), db, &run, &integration); err != nil {
		t.Fatalf("executeSyncRun: %v", err)
	}

	var updated models.IntegrationSyncRun
	if err := db.Take(&updated, run.ID).Error; err != nil {
		t.Fatalf("reload run: %v", err)
	}
	if updated.Status != models.SyncRunStatusPartial {
		t.Fatalf("run status = %s, want partial", updated.Status)
	}
	if updated.ErrorCount != 1 {
		t.Fatalf("error count = %d, want 1", updated.ErrorCount)
	}

	var conn models.Integration
	if err := db.Take(&conn, integration.ID).Error; err != nil {
		t.Fatalf("reload integration: %v", err)
	}
	if conn.LastSyncAt == nil {
		t.Fatalf("last_sync_at not set")
	}
	if conn.LastSuccessSyncAt != nil {
		t.Fatalf("last_success_sync_at set on partial run")
	}
}
