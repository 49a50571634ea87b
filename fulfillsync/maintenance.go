package fulfillsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mschmoyer/schmo-store-front-sub003/config"
	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"github.com/mschmoyer/schmo-store-front-sub003/utils"
	"gorm.io/gorm"
)

const (
	defaultLogRetentionDays = 90
	retryLookbackHours      = 24
	retryBatchLimit         = 20
)

// TriggerHealthCheck computes the current health classification for the
// store's provider connection and records the outcome in the integration
// log. Degraded outcomes are logged as warnings so that repeated checks do
// not feed the failure-alert conditions.
func TriggerHealthCheck(ctx context.Context, db *gorm.DB, storeId string) HealthStatus {
	snapshot := ComputeMetrics(ctx, db, models.IntegrationProviderFulfillHub, defaultMetricsWindow, storeId)
	active := HasRecentActivity(ctx, db, models.IntegrationProviderFulfillHub, storeId, healthIdleWindow)
	health := ClassifyHealth(snapshot, active)

	status := models.LogStatusSuccess
	if health.Status != HealthStatusHealthy {
		status = models.LogStatusWarning
	}
	events := NewEventLogger(db)
	_, _ = events.Log(ctx, LogEntryInput{
		StoreId:         storeId,
		IntegrationType: models.IntegrationProviderFulfillHub,
		Operation:       OpHealthCheck,
		Status:          status,
		ResponseData:    health,
	})

	if health.Status == HealthStatusCritical {
		metadata, _ := json.Marshal(map[string]interface{}{"issues": health.Issues})
		alert := models.IntegrationAlert{
			StoreId:         storeId,
			IntegrationType: models.IntegrationProviderFulfillHub,
			Operation:       OpHealthCheck,
			Level:           models.AlertLevelCritical,
			Type:            models.AlertTypeHealthDegraded,
			Message:         "Integration health is critical",
			MetadataJSON:    metadata,
		}
		if err := db.WithContext(ctx).Create(&alert).Error; err != nil {
			config.LogError(config.GetLogger(), "maintenance.go", "TriggerHealthCheck", "create alert", storeId, err)
		}
	}
	return health
}

// RetryFailedJobs requeues the store's recent failed and partial runs as new
// queued runs linked through parent_run_id, then hands them to the sync
// topic. A per-store lock keeps overlapping retry sweeps from queueing the
// same run twice.
func RetryFailedJobs(ctx context.Context, db *gorm.DB, storeId string) (int, error) {
	locker := config.GetRedisLock()
	if locker != nil {
		lock, err := locker.Obtain(ctx, "fulfillhub:retry:"+storeId, 30*time.Second, nil)
		if err == redislock.ErrNotObtained {
			return 0, errors.New("retry already in progress")
		} else if err != nil {
			return 0, err
		}
		defer func() {
			_ = lock.Release(ctx)
		}()
	}

	cutoff := time.Now().Add(-retryLookbackHours * time.Hour)
	var failedRuns []models.IntegrationSyncRun
	err := db.WithContext(ctx).
		Where("store_id = ? AND status IN ? AND created_at >= ?",
			storeId,
			[]string{models.SyncRunStatusFailed, models.SyncRunStatusPartial},
			cutoff).
		Where("id NOT IN (?)", db.WithContext(ctx).
			Model(&models.IntegrationSyncRun{}).
			Select("parent_run_id").
			Where("store_id = ? AND parent_run_id IS NOT NULL", storeId)).
		Order("id asc").
		Limit(retryBatchLimit).
		Find(&failedRuns).Error
	if err != nil {
		return 0, err
	}

	queued := 0
	for i := range failedRuns {
		parent := failedRuns[i]
		parentID := parent.ID
		retry := models.IntegrationSyncRun{
			StoreId:       storeId,
			IntegrationId: parent.IntegrationId,
			Provider:      parent.Provider,
			Status:        models.SyncRunStatusQueued,
			TriggeredBy:   models.SyncTriggeredRetry,
			EntityTypes:   parent.EntityTypes,
			ParentRunId:   &parentID,
		}
		if cerr := db.WithContext(ctx).Create(&retry).Error; cerr != nil {
			config.LogError(config.GetLogger(), "maintenance.go", "RetryFailedJobs", "create retry run", parent.ID, cerr)
			continue
		}
		if perr := PublishSyncRun(ctx, retry.ID, storeId, retry.IntegrationId); perr != nil {
			config.LogError(config.GetLogger(), "maintenance.go", "RetryFailedJobs", "publish retry run", retry.ID, perr)
			_ = db.WithContext(ctx).Model(&retry).Update("status", models.SyncRunStatusFailed).Error
			continue
		}
		queued++
	}
	return queued, nil
}

// CleanupOldJobs deletes integration log entries, alerts and finished runs
// older than the retention window, across all stores. A global lock keeps
// scheduled sweeps from running on top of each other.
func CleanupOldJobs(ctx context.Context, db *gorm.DB, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = defaultLogRetentionDays
	}

	locker := config.GetRedisLock()
	if locker != nil {
		lock, err := locker.Obtain(ctx, "fulfillhub:cleanup", time.Minute, nil)
		if err == redislock.ErrNotObtained {
			return 0, errors.New("cleanup already in progress")
		} else if err != nil {
			return 0, err
		}
		defer func() {
			_ = lock.Release(ctx)
		}()
	}

	ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var removed int64
	res := db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.IntegrationLog{})
	if res.Error != nil {
		return removed, fmt.Errorf("cleanup logs: %w", res.Error)
	}
	removed += res.RowsAffected

	res = db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.IntegrationAlert{})
	if res.Error != nil {
		return removed, fmt.Errorf("cleanup alerts: %w", res.Error)
	}
	removed += res.RowsAffected

	res = db.WithContext(ctx).
		Where("created_at < ? AND status IN ?", cutoff,
			[]string{models.SyncRunStatusSuccess, models.SyncRunStatusFailed, models.SyncRunStatusPartial}).
		Delete(&models.IntegrationSyncRun{})
	if res.Error != nil {
		return removed, fmt.Errorf("cleanup runs: %w", res.Error)
	}
	removed += res.RowsAffected

	return removed, nil
}
