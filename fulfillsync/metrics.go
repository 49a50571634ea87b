package fulfillsync

import (
	"context"
	"time"

	"github.com/mschmoyer/schmo-store-front-sub003/config"
	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"gorm.io/gorm"
)

// MetricsSnapshot is a rolling-window aggregate of the integration log.
// All fields are zero-safe: an empty window yields zero counts and rates,
// never a division error.
type MetricsSnapshot struct {
	IntegrationType      string           `json:"integration_type"`
	WindowHours          int              `json:"window_hours"`
	TotalOperations      int              `json:"total_operations"`
	SuccessfulOperations int              `json:"successful_operations"`
	FailedOperations     int              `json:"failed_operations"`
	WarningOperations    int              `json:"warning_operations"`
	SuccessRate          float64          `json:"success_rate"`
	ErrorRate            float64          `json:"error_rate"`
	AvgExecutionTimeMs   float64          `json:"avg_execution_time_ms"`
	MaxExecutionTimeMs   int64            `json:"max_execution_time_ms"`
	MinExecutionTimeMs   int64            `json:"min_execution_time_ms"`
	OperationCounts      map[string]int   `json:"operation_counts"`
	HourlyActivity       []HourlyBucket   `json:"hourly_activity"`
	RecentFailures       []FailureSummary `json:"recent_failures"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

type HourlyBucket struct {
	Hour   time.Time `json:"hour"`
	Total  int       `json:"total"`
	Failed int       `json:"failed"`
}

type FailureSummary struct {
	Operation       string    `json:"operation"`
	Message         string    `json:"message"`
	ExecutionTimeMs *int64    `json:"execution_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

const (
	hourlyBucketCount    = 24
	recentFailureCount   = 10
	defaultMetricsWindow = 24
)

// ComputeMetrics aggregates log rows in the trailing hoursBack window.
// StoreId narrows to one tenant when set. Aggregation never surfaces an
// error to the caller: a failed query degrades to the zero snapshot.
func ComputeMetrics(ctx context.Context, db *gorm.DB, integrationType string, hoursBack int, storeId string) MetricsSnapshot {
	if hoursBack <= 0 {
		hoursBack = defaultMetricsWindow
	}
	now := time.Now()
	snapshot := emptySnapshot(integrationType, hoursBack, now)
	cutoff := now.Add(-time.Duration(hoursBack) * time.Hour)

	query := db.WithContext(ctx).
		Where("integration_type = ? AND created_at >= ?", integrationType, cutoff)
	if storeId != "" {
		query = query.Where("store_id = ?", storeId)
	}

	var rows []models.IntegrationLog
	if err := query.Order("created_at asc").Find(&rows).Error; err != nil {
		config.LogError(config.GetLogger(), "metrics.go", "ComputeMetrics", "query log window", integrationType, err)
		return snapshot
	}
	if len(rows) == 0 {
		return snapshot
	}

	var execCount int64
	var execSum int64
	buckets := make(map[time.Time]*HourlyBucket)

	for _, row := range rows {
		snapshot.TotalOperations++
		switch row.Status {
		case models.LogStatusSuccess:
			snapshot.SuccessfulOperations++
		case models.LogStatusFailure:
			snapshot.FailedOperations++
		case models.LogStatusWarning:
			snapshot.WarningOperations++
		}
		snapshot.OperationCounts[row.Operation]++

		if row.ExecutionTimeMs != nil {
			v := *row.ExecutionTimeMs
			execSum += v
			execCount++
			if v > snapshot.MaxExecutionTimeMs {
				snapshot.MaxExecutionTimeMs = v
			}
			if snapshot.MinExecutionTimeMs == 0 || v < snapshot.MinExecutionTimeMs {
				snapshot.MinExecutionTimeMs = v
			}
		}

		hour := row.CreatedAt.Truncate(time.Hour)
		b := buckets[hour]
		if b == nil {
			b = &HourlyBucket{Hour: hour}
			buckets[hour] = b
		}
		b.Total++
		if row.Status == models.LogStatusFailure {
			b.Failed++
		}
	}

	if snapshot.TotalOperations > 0 {
		snapshot.SuccessRate = float64(snapshot.SuccessfulOperations) / float64(snapshot.TotalOperations)
		snapshot.ErrorRate = float64(snapshot.FailedOperations) / float64(snapshot.TotalOperations)
	}
	if execCount > 0 {
		snapshot.AvgExecutionTimeMs = float64(execSum) / float64(execCount)
	}

	// Most recent 24 hour-buckets, oldest first, zero-filled so the
	// histogram always has a fixed shape.
	end := now.Truncate(time.Hour)
	for i := hourlyBucketCount - 1; i >= 0; i-- {
		hour := end.Add(-time.Duration(i) * time.Hour)
		if b := buckets[hour]; b != nil {
			snapshot.HourlyActivity = append(snapshot.HourlyActivity, *b)
		} else {
			snapshot.HourlyActivity = append(snapshot.HourlyActivity, HourlyBucket{Hour: hour})
		}
	}

	// Ten most recent failures, newest first.
	for i := len(rows) - 1; i >= 0 && len(snapshot.RecentFailures) < recentFailureCount; i-- {
		row := rows[i]
		if row.Status != models.LogStatusFailure {
			continue
		}
		snapshot.RecentFailures = append(snapshot.RecentFailures, FailureSummary{
			Operation:       row.Operation,
			Message:         row.ErrorMessage,
			ExecutionTimeMs: row.ExecutionTimeMs,
			CreatedAt:       row.CreatedAt,
		})
	}
	return snapshot
}

func emptySnapshot(integrationType string, hoursBack int, now time.Time) MetricsSnapshot {
	return MetricsSnapshot{
		IntegrationType: integrationType,
		WindowHours:     hoursBack,
		OperationCounts: map[string]int{},
		HourlyActivity:  []HourlyBucket{},
		RecentFailures:  []FailureSummary{},
		GeneratedAt:     now,
	}
}

// HasRecentActivity reports whether any log row exists for the integration
// in the trailing window. The health classifier's only wall-clock input.
func HasRecentActivity(ctx context.Context, db *gorm.DB, integrationType string, storeId string, window time.Duration) bool {
	cutoff := time.Now().Add(-window)
	query := db.WithContext(ctx).Model(&models.IntegrationLog{}).
		Where("integration_type = ? AND created_at >= ?", integrationType, cutoff)
	if storeId != "" {
		query = query.Where("store_id = ?", storeId)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		config.LogError(config.GetLogger(), "metrics.go", "HasRecentActivity", "count recent rows", integrationType, err)
		return true
	}
	return count > 0
}
