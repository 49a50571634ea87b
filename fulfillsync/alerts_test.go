package fulfillsync

import (
	"context"
	"testing"

	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"gorm.io/gorm"
)

func logFailure(t *testing.T, events *EventLogger, operation string) {
	t.Helper()
	_, err := events.Log(context.Background(), LogEntryInput{
		StoreId:         "store-1",
		IntegrationType: models.IntegrationProviderFulfillHub,
		Operation:       operation,
		Status:          models.LogStatusFailure,
		ErrorMessage:    "provider timeout",
	})
	if err != nil {
		t.Fatalf("log failure: %v", err)
	}
}

func logSuccess(t *testing.T, events *EventLogger, operation string) {
	t.Helper()
	_, err := events.Log(context.Background(), LogEntryInput{
		StoreId:         "store-1",
		IntegrationType: models.IntegrationProviderFulfillHub,
		Operation:       operation,
		Status:          models.LogStatusSuccess,
	})
	if err != nil {
		t.Fatalf("log success: %v", err)
	}
}

func countAlerts(t *testing.T, db *gorm.DB, alertType string) int64 {
	t.Helper()
	return countRows(t, db, &models.IntegrationAlert{}, "store_id = ? AND type = ?", "store-1", alertType)
}

func TestConsecutiveFailuresAlertFiresAtThreshold(t *testing.T) {
	db := newTestDB(t)
	events := NewEventLogger(db)

	for i := 0; i < consecutiveFailureThreshold-1; i++ {
		logFailure(t, events, OpSyncProducts)
	}
	if n := countAlerts(t, db, models.AlertTypeConsecutiveFailures); n != 0 {
		t.Fatalf("alerts before threshold = %d, want 0", n)
	}

	logFailure(t, events, OpSyncProducts)
	if n := countAlerts(t, db, models.AlertTypeConsecutiveFailures); n != 1 {
		t.Fatalf("alerts at threshold = %d, want 1", n)
	}

	var alert models.IntegrationAlert
	if err := db.Where("store_id = ? AND type = ?", "store-1", models.AlertTypeConsecutiveFailures).
		Take(&alert).Error; err != nil {
		t.Fatalf("load alert: %v", err)
	}
	if alert.Level != models.AlertLevelCritical {
		t.Fatalf("alert level = %s, want critical", alert.Level)
	}
	if alert.Operation != OpSyncProducts {
		t.Fatalf("alert operation = %s, want %s", alert.Operation, OpSyncProducts)
	}
}

func TestConsecutiveFailureRunBrokenBySuccess(t *testing.T) {
	db := newTestDB(t)
	events := NewEventLogger(db)

	for i := 0; i < 4; i++ {
		logFailure(t, events, OpSyncWarehouses)
	}
	logSuccess(t, events, OpSyncWarehouses)
	for i := 0; i < 4; i++ {
		logFailure(t, events, OpSyncWarehouses)
	}

	if n := countAlerts(t, db, models.AlertTypeConsecutiveFailures); n != 0 {
		t.Fatalf("alerts = %d, want 0 when success breaks the run", n)
	}
}

func TestErrorRateAlertNeedsMinimumSamples(t *testing.T) {
	db := newTestDB(t)
	events := NewEventLogger(db)

	logSuccess(t, events, OpSyncProducts)
	logSuccess(t, events, OpSyncProducts)
	logFailure(t, events, OpSyncProducts)
	logFailure(t, events, OpSyncProducts)
	if n := countAlerts(t, db, models.AlertTypeHighErrorRate); n != 0 {
		t.Fatalf("alerts with 4 samples = %d, want 0", n)
	}

	logFailure(t, events, OpSyncProducts)
	if n := countAlerts(t, db, models.AlertTypeHighErrorRate); n != 1 {
		t.Fatalf("alerts with 5 samples at 60%% = %d, want 1", n)
	}
}

func TestSuccessWritesDoNotEvaluateAlerts(t *testing.T) {
	db := newTestDB(t)
	events := NewEventLogger(db)

	for i := 0; i < 10; i++ {
		logSuccess(t, events, OpSyncProducts)
	}
	if n := countRows(t, db, &models.IntegrationAlert{}, "store_id = ?", "store-1"); n != 0 {
		t.Fatalf("alerts = %d, want 0 for all-success log", n)
	}
}

func TestListAlertsFiltersByLevel(t *testing.T) {
	db := newTestDB(t)
	events := NewEventLogger(db)

	for i := 0; i < consecutiveFailureThreshold; i++ {
		logFailure(t, events, OpSyncProducts)
	}

	critical, err := ListAlerts(context.Background(), db, "store-1", 24, models.AlertLevelCritical)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	for _, alert := range critical {
		if alert.Level != models.AlertLevelCritical {
			t.Fatalf("filtered list contains level %s", alert.Level)
		}
	}
	if len(critical) != 1 {
		t.Fatalf("critical alerts = %d, want 1", len(critical))
	}

	all, err := ListAlerts(context.Background(), db, "store-1", 24, "")
	if err != nil {
		t.Fatalf("ListAlerts all: %v", err)
	}
	if len(all) <= len(critical) {
		t.Fatalf("unfiltered list = %d, want more than %d", len(all), len(critical))
	}
}
