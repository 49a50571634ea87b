package fulfillsync

import (
	"context"
	"testing"
	"time"

	"github.com/mschmoyer/schmo-store-front-sub003/models"
)

func TestTriggerHealthCheckLogsOutcome(t *testing.T) {
	db := newTestDB(t)
	seedLog(t, db, "store-1", OpSyncProducts, models.LogStatusSuccess, 100, time.Minute)

	health := TriggerHealthCheck(context.Background(), db, "store-1")
	if health.Status != HealthStatusHealthy {
		t.Fatalf("status = %s, want healthy (issues: %v)", health.Status, health.Issues)
	}

	if n := countRows(t, db, &models.IntegrationLog{},
		"store_id = ? AND operation = ? AND status = ?",
		"store-1", OpHealthCheck, models.LogStatusSuccess); n != 1 {
		t.Fatalf("health check log rows = %d, want 1", n)
	}
}

func TestTriggerHealthCheckDegradedLogsWarning(t *testing.T) {
	db := newTestDB(t)

	// Empty log means no recent activity, which classifies as warning.
	health := TriggerHealthCheck(context.Background(), db, "store-1")
	if health.Status != HealthStatusWarning {
		t.Fatalf("status = %s, want warning for idle integration", health.Status)
	}
	if n := countRows(t, db, &models.IntegrationLog{},
		"store_id = ? AND operation = ? AND status = ?",
		"store-1", OpHealthCheck, models.LogStatusWarning); n != 1 {
		t.Fatalf("warning log rows = %d, want 1", n)
	}
}

func TestTriggerHealthCheckCriticalEmitsAlert(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 10; i++ {
		seedLog(t, db, "store-1", OpSyncProducts, models.LogStatusFailure, 100, time.Minute)
	}

	health := TriggerHealthCheck(context.Background(), db, "store-1")
	if health.Status != HealthStatusCritical {
		t.Fatalf("status = %s, want critical", health.Status)
	}

	if n := countRows(t, db, &models.IntegrationAlert{},
		"store_id = ? AND type = ?", "store-1", models.AlertTypeHealthDegraded); n != 1 {
		t.Fatalf("health_degraded alerts = %d, want 1", n)
	}
}

func TestCleanupOldJobsRespectsRetention(t *testing.T) {
	db := newTestDB(t)
	old := time.Now().AddDate(0, 0, -120)

	if err := db.Create(&models.IntegrationLog{
		StoreId:         "store-1",
		IntegrationType: models.IntegrationProviderFulfillHub,
		Operation:       OpSyncProducts,
		Status:          models.LogStatusSuccess,
		CreatedAt:       old,
	}).Error; err != nil {
		t.Fatalf("seed old log: %v", err)
	}
	seedLog(t, db, "store-1", OpSyncProducts, models.LogStatusSuccess, 100, time.Minute)

	if err := db.Create(&models.IntegrationSyncRun{
		StoreId:   "store-1",
		Provider:  models.IntegrationProviderFulfillHub,
		Status:    models.SyncRunStatusSuccess,
		CreatedAt: old,
	}).Error; err != nil {
		t.Fatalf("seed old run: %v", err)
	}
	if err := db.Create(&models.IntegrationSyncRun{
		StoreId:   "store-1",
		Provider:  models.IntegrationProviderFulfillHub,
		Status:    models.SyncRunStatusQueued,
		CreatedAt: old,
	}).Error; err != nil {
		t.Fatalf("seed old queued run: %v", err)
	}

	removed, err := CleanupOldJobs(context.Background(), db, 90)
	if err != nil {
		t.Fatalf("CleanupOldJobs: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2 (old log and old finished run)", removed)
	}

	if n := countRows(t, db, &models.IntegrationLog{}, "store_id = ?", "store-1"); n != 1 {
		t.Fatalf("remaining logs = %d, want 1", n)
	}
	// Queued runs are never reaped regardless of age.
	if n := countRows(t, db, &models.IntegrationSyncRun{}, "status = ?", models.SyncRunStatusQueued); n != 1 {
		t.Fatalf("queued run was deleted")
	}
}

func TestRetryFailedJobsNoCandidates(t *testing.T) {
	db := newTestDB(t)
	queued, err := RetryFailedJobs(context.Background(), db, "store-1")
	if err != nil {
		t.Fatalf("RetryFailedJobs: %v", err)
	}
	if queued != 0 {
		t.Fatalf("queued = %d, want 0", queued)
	}
}
