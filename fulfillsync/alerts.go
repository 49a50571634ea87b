package fulfillsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"gorm.io/gorm"
)

const (
	errorRateAlertWindow     = time.Hour
	errorRateAlertThreshold  = 0.10
	errorRateAlertMinSamples = 5

	consecutiveFailureLookback  = 10
	consecutiveFailureThreshold = 5
)

// AlertEngine evaluates alert conditions after every failure log write.
// Alert rows are append-only and deliberately not deduplicated: conditions
// that keep re-triggering keep emitting rows.
type AlertEngine struct {
	db *gorm.DB
}

func NewAlertEngine(db *gorm.DB) *AlertEngine {
	return &AlertEngine{db: db}
}

func (a *AlertEngine) Evaluate(ctx context.Context, storeId, integrationType, operation string) error {
	if err := a.checkErrorRate(ctx, storeId, integrationType); err != nil {
		return err
	}
	return a.checkConsecutiveFailures(ctx, storeId, integrationType, operation)
}

// checkErrorRate recomputes the trailing one-hour error rate for the
// (store, integration type) pair and emits a warning alert when it exceeds
// the threshold with enough samples to mean anything.
func (a *AlertEngine) checkErrorRate(ctx context.Context, storeId, integrationType string) error {
	cutoff := time.Now().Add(-errorRateAlertWindow)

	var total, failed int64
	if err := a.db.WithContext(ctx).Model(&models.IntegrationLog{}).
		Where("store_id = ? AND integration_type = ? AND created_at >= ?", storeId, integrationType, cutoff).
		Count(&total).Error; err != nil {
		return err
	}
	if total < errorRateAlertMinSamples {
		return nil
	}
	if err := a.db.WithContext(ctx).Model(&models.IntegrationLog{}).
		Where("store_id = ? AND integration_type = ? AND status = ? AND created_at >= ?",
			storeId, integrationType, models.LogStatusFailure, cutoff).
		Count(&failed).Error; err != nil {
		return err
	}

	errorRate := float64(failed) / float64(total)
	if errorRate <= errorRateAlertThreshold {
		return nil
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"error_rate":       errorRate,
		"total_operations": total,
		"failed_count":     failed,
		"window_hours":     1,
	})
	alert := models.IntegrationAlert{
		StoreId:         storeId,
		IntegrationType: integrationType,
		Level:           models.AlertLevelWarning,
		Type:            models.AlertTypeHighErrorRate,
		Message:         fmt.Sprintf("Error rate %.1f%% over the last hour (%d of %d operations failed)", errorRate*100, failed, total),
		MetadataJSON:    metadata,
	}
	return a.db.WithContext(ctx).Create(&alert).Error
}

// checkConsecutiveFailures scans the most recent rows for the exact
// operation, newest first, and counts the unbroken failure run ending at the
// most recent row. Any non-failure row ends the run.
func (a *AlertEngine) checkConsecutiveFailures(ctx context.Context, storeId, integrationType, operation string) error {
	var recent []models.IntegrationLog
	if err := a.db.WithContext(ctx).
		Where("store_id = ? AND integration_type = ? AND operation = ?", storeId, integrationType, operation).
		Order("id desc").
		Limit(consecutiveFailureLookback).
		Find(&recent).Error; err != nil {
		return err
	}

	run := 0
	for _, row := range recent {
		if row.Status != models.LogStatusFailure {
			break
		}
		run++
	}
	if run < consecutiveFailureThreshold {
		return nil
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"consecutive_failures": run,
		"lookback":             consecutiveFailureLookback,
	})
	alert := models.IntegrationAlert{
		StoreId:         storeId,
		IntegrationType: integrationType,
		Operation:       operation,
		Level:           models.AlertLevelCritical,
		Type:            models.AlertTypeConsecutiveFailures,
		Message:         fmt.Sprintf("%d consecutive failures for operation %s", run, operation),
		MetadataJSON:    metadata,
	}
	return a.db.WithContext(ctx).Create(&alert).Error
}

// ListAlerts returns alert rows in the trailing window, newest first,
// optionally filtered by store and level.
func ListAlerts(ctx context.Context, db *gorm.DB, storeId string, hoursBack int, level string) ([]models.IntegrationAlert, error) {
	if hoursBack <= 0 {
		hoursBack = 24
	}
	cutoff := time.Now().Add(-time.Duration(hoursBack) * time.Hour)

	query := db.WithContext(ctx).Where("created_at >= ?", cutoff)
	if storeId != "" {
		query = query.Where("store_id = ?", storeId)
	}
	if level != "" {
		query = query.Where("level = ?", level)
	}

	var alerts []models.IntegrationAlert
	if err := query.Order("created_at desc").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}
