package fulfillsync

import (
	"context"
	"time"

	"github.com/mschmoyer/schmo-store-front-sub003/config"
	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("fulfillsync")

// runAll executes the selected stages in fixed order: warehouses, locations,
// products, inventory. A stage failure is contained to the stage; later
// stages still run, and the failed stage reports an empty result while its
// partial writes stay committed. Returns the per-entity results and the
// number of failed stages. Concurrent runs for the same store are not
// serialized against each other; the last writer wins per row.
func (s *syncer) runAll(ctx context.Context, entities SyncEntities) (map[string]SyncResult, int) {
	results := map[string]SyncResult{}
	failed := 0

	type stage struct {
		entity string
		fn     func(context.Context) (SyncResult, error)
	}
	stages := []stage{
		{EntityWarehouses, s.syncWarehouses},
		{EntityLocations, s.syncLocations},
		{EntityProducts, s.syncProducts},
		{EntityInventory, s.syncInventory},
	}

	for _, st := range stages {
		if !entityEnabled(entities, st.entity) {
			continue
		}
		res, ok := s.runStage(ctx, st.entity, st.fn)
		results[st.entity] = res
		if !ok {
			failed++
		}
	}
	return results, failed
}

// runStage wraps one reconciliation stage with tracing, timing and the
// success/failure log entry for the stage as a whole.
func (s *syncer) runStage(ctx context.Context, entity string, fn func(context.Context) (SyncResult, error)) (SyncResult, bool) {
	operation := operationForEntity(entity)
	ctx, span := tracer.Start(ctx, "sync."+entity)
	defer span.End()

	start := time.Now()
	res, err := fn(ctx)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		span.RecordError(err)
		config.LogError(config.GetLogger(), "orchestrator.go", "runStage", "stage failed", entity, err)
		_, _ = s.events.Log(ctx, LogEntryInput{
			StoreId:         s.storeId,
			IntegrationType: s.integrationType,
			Operation:       operation,
			Status:          models.LogStatusFailure,
			ExecutionTimeMs: int64Ptr(elapsed),
			ErrorMessage:    err.Error(),
		})
		return SyncResult{}, false
	}

	_, _ = s.events.Log(ctx, LogEntryInput{
		StoreId:         s.storeId,
		IntegrationType: s.integrationType,
		Operation:       operation,
		Status:          models.LogStatusSuccess,
		ResponseData:    res,
		ExecutionTimeMs: int64Ptr(elapsed),
	})
	return res, true
}

func entityEnabled(entities SyncEntities, entity string) bool {
	switch entity {
	case EntityWarehouses:
		return entities.Warehouses
	case EntityLocations:
		return entities.Locations
	case EntityProducts:
		return entities.Products
	case EntityInventory:
		return entities.Inventory
	default:
		return false
	}
}

// executeSyncRun drives one IntegrationSyncRun row through
// running -> success/partial/failed while the stages execute. The run's
// entity selection comes from its EntityTypes column; the integration's
// last-sync stamps are refreshed afterwards.
func executeSyncRun(ctx context.Context, db *gorm.DB, run *models.IntegrationSyncRun, integration *models.Integration) (map[string]SyncResult, error) {
	ctx, span := tracer.Start(ctx, "sync.run", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	client, err := newFulfillClient(integration.AuthSecretRef)
	if err != nil {
		now := time.Now()
		_ = db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
			"status":      models.SyncRunStatusFailed,
			"finished_at": &now,
		}).Error
		return nil, err
	}

	startedAt := time.Now()
	if uerr := db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":     models.SyncRunStatusRunning,
		"started_at": &startedAt,
	}).Error; uerr != nil {
		return nil, uerr
	}

	s := newSyncer(db, client, run.StoreId)
	entities := DecodeEntities([]byte(run.EntityTypes))
	results, failedStages := s.runAll(ctx, entities)

	totalSynced := 0
	for _, res := range results {
		totalSynced += res.AddedCount + res.UpdatedCount
	}

	status := models.SyncRunStatusSuccess
	switch {
	case failedStages > 0 && failedStages == len(results):
		status = models.SyncRunStatusFailed
	case failedStages > 0:
		status = models.SyncRunStatusPartial
	}

	finishedAt := time.Now()
	if uerr := db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":         status,
		"stats_json":     marshalPayload(results),
		"records_synced": totalSynced,
		"error_count":    failedStages,
		"finished_at":    &finishedAt,
		"duration_ms":    finishedAt.Sub(startedAt).Milliseconds(),
	}).Error; uerr != nil {
		config.LogError(config.GetLogger(), "orchestrator.go", "executeSyncRun", "update run", run.ID, uerr)
	}

	integrationFields := map[string]interface{}{"last_sync_at": &finishedAt}
	if status == models.SyncRunStatusSuccess {
		integrationFields["last_success_sync_at"] = &finishedAt
	}
	if uerr := db.WithContext(ctx).Model(integration).Updates(integrationFields).Error; uerr != nil {
		config.LogError(config.GetLogger(), "orchestrator.go", "executeSyncRun", "update integration", integration.ID, uerr)
	}

	return results, nil
}
