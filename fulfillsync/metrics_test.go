package fulfillsync

import (
	"context"
	"testing"
	"time"

	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"gorm.io/gorm"
)

func seedLog(t *testing.T, db *gorm.DB, storeId, operation, status string, execMs int64, age time.Duration) {
	t.Helper()
	row := models.IntegrationLog{
		StoreId:         storeId,
		IntegrationType: models.IntegrationProviderFulfillHub,
		Operation:       operation,
		Status:          status,
		ExecutionTimeMs: int64Ptr(execMs),
		CreatedAt:       time.Now().Add(-age),
	}
	if status == models.LogStatusFailure {
		row.ErrorMessage = "provider timeout"
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed log: %v", err)
	}
}

func TestComputeMetricsRates(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 8; i++ {
		seedLog(t, db, "store-1", OpSyncProducts, models.LogStatusSuccess, 100, time.Minute)
	}
	for i := 0; i < 2; i++ {
		seedLog(t, db, "store-1", OpSyncProducts, models.LogStatusFailure, 300, time.Minute)
	}

	snap := ComputeMetrics(context.Background(), db, models.IntegrationProviderFulfillHub, 24, "store-1")

	if snap.TotalOperations != 10 {
		t.Fatalf("total = %d, want 10", snap.TotalOperations)
	}
	if snap.SuccessRate != 0.8 || snap.ErrorRate != 0.2 {
		t.Fatalf("rates = %f/%f, want 0.8/0.2", snap.SuccessRate, snap.ErrorRate)
	}
	if snap.AvgExecutionTimeMs != 140 {
		t.Fatalf("avg exec = %f, want 140", snap.AvgExecutionTimeMs)
	}
	if snap.MaxExecutionTimeMs != 300 || snap.MinExecutionTimeMs != 100 {
		t.Fatalf("exec bounds = %d/%d, want 300/100", snap.MaxExecutionTimeMs, snap.MinExecutionTimeMs)
	}
	if snap.OperationCounts[OpSyncProducts] != 10 {
		t.Fatalf("operation counts = %v, want 10 for %s", snap.OperationCounts, OpSyncProducts)
	}
	if len(snap.RecentFailures) != 2 {
		t.Fatalf("recent failures = %d, want 2", len(snap.RecentFailures))
	}
	if len(snap.HourlyActivity) != hourlyBucketCount {
		t.Fatalf("hourly buckets = %d, want %d", len(snap.HourlyActivity), hourlyBucketCount)
	}
}

func TestComputeMetricsEmptyWindow(t *testing.T) {
	db := newTestDB(t)

	snap := ComputeMetrics(context.Background(), db, models.IntegrationProviderFulfillHub, 24, "store-1")

	if snap.TotalOperations != 0 {
		t.Fatalf("total = %d, want 0", snap.TotalOperations)
	}
	if snap.SuccessRate != 0 || snap.ErrorRate != 0 || snap.AvgExecutionTimeMs != 0 {
		t.Fatalf("empty snapshot has nonzero rates: %+v", snap)
	}
	if snap.OperationCounts == nil || snap.RecentFailures == nil {
		t.Fatalf("empty snapshot has nil collections")
	}
}

func TestComputeMetricsExcludesOtherStoresAndOldRows(t *testing.T) {
	db := newTestDB(t)
	seedLog(t, db, "store-1", OpSyncProducts, models.LogStatusSuccess, 100, time.Minute)
	seedLog(t, db, "store-2", OpSyncProducts, models.LogStatusSuccess, 100, time.Minute)
	seedLog(t, db, "store-1", OpSyncProducts, models.LogStatusSuccess, 100, 48*time.Hour)

	snap := ComputeMetrics(context.Background(), db, models.IntegrationProviderFulfillHub, 24, "store-1")
	if snap.TotalOperations != 1 {
		t.Fatalf("total = %d, want 1", snap.TotalOperations)
	}
}

func TestHasRecentActivity(t *testing.T) {
	db := newTestDB(t)
	if HasRecentActivity(context.Background(), db, models.IntegrationProviderFulfillHub, "store-1", healthIdleWindow) {
		t.Fatalf("expected no activity on empty log")
	}
	seedLog(t, db, "store-1", OpHealthCheck, models.LogStatusSuccess, 10, time.Minute)
	if !HasRecentActivity(context.Background(), db, models.IntegrationProviderFulfillHub, "store-1", healthIdleWindow) {
		t.Fatalf("expected activity after seeding a row")
	}
}
