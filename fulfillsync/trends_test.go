package fulfillsync

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"gorm.io/gorm"
)

func seedDay(t *testing.T, db *gorm.DB, daysAgo, success, failed int, execMs int64) {
	t.Helper()
	when := time.Now().AddDate(0, 0, -daysAgo)
	for i := 0; i < success; i++ {
		row := models.IntegrationLog{
			StoreId:         "store-1",
			IntegrationType: models.IntegrationProviderFulfillHub,
			Operation:       OpSyncProducts,
			Status:          models.LogStatusSuccess,
			ExecutionTimeMs: int64Ptr(execMs),
			CreatedAt:       when,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed success: %v", err)
		}
	}
	for i := 0; i < failed; i++ {
		row := models.IntegrationLog{
			StoreId:         "store-1",
			IntegrationType: models.IntegrationProviderFulfillHub,
			Operation:       OpSyncProducts,
			Status:          models.LogStatusFailure,
			ErrorMessage:    "provider timeout",
			ExecutionTimeMs: int64Ptr(execMs),
			CreatedAt:       when,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed failure: %v", err)
		}
	}
}

func TestComputeTrendsImprovingSuccessRate(t *testing.T) {
	db := newTestDB(t)
	// Daily success rates 0.5, 0.6, 0.7, 0.8 oldest to newest.
	seedDay(t, db, 3, 1, 1, 100)
	seedDay(t, db, 2, 3, 2, 100)
	seedDay(t, db, 1, 7, 3, 100)
	seedDay(t, db, 0, 4, 1, 100)

	report := ComputeTrends(context.Background(), db, models.IntegrationProviderFulfillHub, 7, "store-1")

	if len(report.DailyStats) != 4 {
		t.Fatalf("daily stats = %d, want 4", len(report.DailyStats))
	}
	if report.Trends.SuccessRateTrend != TrendImproving {
		t.Fatalf("success trend = %s (slope %f), want improving",
			report.Trends.SuccessRateTrend, report.Trends.SuccessRateSlope)
	}
	if report.Trends.SuccessRateSlope <= 0 {
		t.Fatalf("success slope = %f, want positive", report.Trends.SuccessRateSlope)
	}
	if report.Trends.ExecutionTimeTrend != TrendStable {
		t.Fatalf("exec trend = %s, want stable for constant times", report.Trends.ExecutionTimeTrend)
	}
}

func TestComputeTrendsInsufficientData(t *testing.T) {
	db := newTestDB(t)
	seedDay(t, db, 1, 5, 0, 100)
	seedDay(t, db, 0, 5, 0, 100)

	report := ComputeTrends(context.Background(), db, models.IntegrationProviderFulfillHub, 7, "store-1")

	if len(report.DailyStats) != 2 {
		t.Fatalf("daily stats = %d, want 2", len(report.DailyStats))
	}
	if report.Trends.SuccessRateTrend != TrendStable ||
		report.Trends.ExecutionTimeTrend != TrendStable ||
		report.Trends.VolumeTrend != TrendStable {
		t.Fatalf("trends = %+v, want all stable below %d points", report.Trends, minTrendPoints)
	}
	if report.Trends.SuccessRateSlope != 0 {
		t.Fatalf("slope = %f, want 0 when not computed", report.Trends.SuccessRateSlope)
	}
}

func TestComputeTrendsEmptyLog(t *testing.T) {
	db := newTestDB(t)
	report := ComputeTrends(context.Background(), db, models.IntegrationProviderFulfillHub, 7, "store-1")
	if len(report.DailyStats) != 0 {
		t.Fatalf("daily stats = %d, want 0", len(report.DailyStats))
	}
	if report.Trends.SuccessRateTrend != TrendStable {
		t.Fatalf("trend = %s, want stable", report.Trends.SuccessRateTrend)
	}
}

func TestOlsSlope(t *testing.T) {
	if got := olsSlope([]float64{1, 2, 3}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("slope([1,2,3]) = %f, want 1", got)
	}
	if got := olsSlope([]float64{4, 4, 4, 4}); got != 0 {
		t.Fatalf("slope(constant) = %f, want 0", got)
	}
	if got := olsSlope([]float64{9}); got != 0 {
		t.Fatalf("slope(single point) = %f, want 0", got)
	}
	if got := olsSlope([]float64{10, 8, 6}); math.Abs(got+2) > 1e-9 {
		t.Fatalf("slope([10,8,6]) = %f, want -2", got)
	}
}
