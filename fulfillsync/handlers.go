package fulfillsync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mschmoyer/schmo-store-front-sub003/config"
	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"github.com/mschmoyer/schmo-store-front-sub003/utils"
	"gorm.io/gorm"
)

func StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		db := config.GetDB().WithContext(ctx)

		integration, err := getIntegration(db, storeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if integration == nil {
			c.JSON(http.StatusOK, StatusResponse{
				Connection: ConnectionResponse{
					Status: models.IntegrationStatusDisconnected,
				},
				Entities: DefaultEntities(),
			})
			return
		}

		c.JSON(http.StatusOK, StatusResponse{
			Connection: ConnectionResponse{
				Status:     integration.Status,
				MerchantId: integration.MerchantId,
			},
			LastSyncAt:        formatTime(integration.LastSyncAt),
			LastSuccessSyncAt: formatTime(integration.LastSuccessSyncAt),
			Entities:          DecodeEntities(integration.SettingsJSON),
		})
	}
}

func ConnectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req ConnectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if fields := utils.ProcessValidationErrors(err); len(fields) > 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": fields})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if strings.TrimSpace(req.MerchantId) == "" || strings.TrimSpace(req.APIKey) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "merchantId and apiKey are required"})
			return
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		db := config.GetDB().WithContext(ctx)

		integration, err := getIntegration(db, storeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		if integration == nil {
			integration = &models.Integration{
				StoreId:       storeId,
				Provider:      models.IntegrationProviderFulfillHub,
				Status:        models.IntegrationStatusConnected,
				AuthType:      "api_key",
				AuthSecretRef: req.APIKey,
				MerchantId:    strings.TrimSpace(req.MerchantId),
				SettingsJSON:  EncodeEntities(DefaultEntities()),
				UpdatedAt:     now,
			}
			if err := db.Create(integration).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		} else {
			update := map[string]interface{}{
				"status":          models.IntegrationStatusConnected,
				"auth_type":       "api_key",
				"auth_secret_ref": req.APIKey,
				"merchant_id":     strings.TrimSpace(req.MerchantId),
				"updated_at":      now,
			}
			if len(integration.SettingsJSON) == 0 {
				update["settings_json"] = EncodeEntities(DefaultEntities())
			}
			if err := db.Model(integration).Updates(update).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func DisconnectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		db := config.GetDB().WithContext(ctx)

		integration, err := getIntegration(db, storeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if integration == nil {
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}

		if err := db.Model(integration).Updates(map[string]interface{}{
			"status":          models.IntegrationStatusDisconnected,
			"auth_secret_ref": "",
			"updated_at":      time.Now(),
		}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func UpdateSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req UpdateSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		db := config.GetDB().WithContext(ctx)

		integration, err := getIntegration(db, storeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		entities := EncodeEntities(req.Entities)
		if integration == nil {
			integration = &models.Integration{
				StoreId:      storeId,
				Provider:     models.IntegrationProviderFulfillHub,
				Status:       models.IntegrationStatusDisconnected,
				SettingsJSON: entities,
			}
			if err := db.Create(integration).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		} else {
			if err := db.Model(integration).Updates(map[string]interface{}{
				"settings_json": entities,
				"updated_at":    time.Now(),
			}).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// TriggerSyncHandler runs a reconciliation pass inline and returns the
// per-entity results. The response reports success:true whenever the pass
// itself completed, even if individual stages failed; callers inspect the
// run status and alerts for stage-level outcomes.
func TriggerSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req TriggerSyncRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}

		entities, ok := entitiesFromParam(strings.TrimSpace(req.Entity))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown entity type"})
			return
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		db := config.GetDB().WithContext(ctx)

		integration, err := getIntegration(db, storeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if integration == nil || integration.Status != models.IntegrationStatusConnected {
			c.JSON(http.StatusConflict, gin.H{"error": utils.ErrIntegrationNotConfigured.Error()})
			return
		}

		if req.Entity == "" || req.Entity == EntityAll {
			if stored := DecodeEntities(integration.SettingsJSON); !isEmptyEntities(stored) {
				entities = stored
			}
		}

		run := models.IntegrationSyncRun{
			StoreId:       storeId,
			IntegrationId: integration.ID,
			Provider:      models.IntegrationProviderFulfillHub,
			Status:        models.SyncRunStatusQueued,
			TriggeredBy:   models.SyncTriggeredManual,
			EntityTypes:   string(EncodeEntities(entities)),
		}
		if err := db.Create(&run).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		results, err := executeSyncRun(ctx, config.GetDB(), &run, integration)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, SyncResponse{
			Success: true,
			RunId:   run.ID,
			Results: results,
		})
	}
}

func SyncHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit := 20
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		db := config.GetDB().WithContext(ctx)

		var runs []models.IntegrationSyncRun
		if err := db.Where("store_id = ? AND provider = ?", storeId, models.IntegrationProviderFulfillHub).
			Order("id desc").
			Limit(limit).
			Find(&runs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		items := make([]SyncRunResponse, 0, len(runs))
		for _, run := range runs {
			items = append(items, mapRunToResponse(run, false))
		}
		c.JSON(http.StatusOK, SyncHistoryResponse{Items: items})
	}
}

func SyncRunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		db := config.GetDB().WithContext(ctx)

		var run models.IntegrationSyncRun
		if err := db.Where("id = ? AND store_id = ?", id, storeId).Take(&run).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, mapRunToResponse(run, true))
	}
}

func RetrySyncRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		db := config.GetDB().WithContext(ctx)

		var run models.IntegrationSyncRun
		if err := db.Where("id = ? AND store_id = ?", id, storeId).Take(&run).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		newRun := models.IntegrationSyncRun{
			StoreId:       storeId,
			IntegrationId: run.IntegrationId,
			Provider:      run.Provider,
			Status:        models.SyncRunStatusQueued,
			TriggeredBy:   models.SyncTriggeredRetry,
			EntityTypes:   run.EntityTypes,
			ParentRunId:   &run.ID,
		}
		if err := db.Create(&newRun).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		_ = PublishSyncRun(c.Request.Context(), newRun.ID, storeId, run.IntegrationId)

		c.JSON(http.StatusOK, gin.H{"id": newRun.ID})
	}
}

func MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		hours := defaultMetricsWindow
		if v := strings.TrimSpace(c.Query("hours")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 720 {
				hours = n
			}
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		snapshot := ComputeMetrics(ctx, config.GetDB(), models.IntegrationProviderFulfillHub, hours, storeId)
		c.JSON(http.StatusOK, snapshot)
	}
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		db := config.GetDB()
		snapshot := ComputeMetrics(ctx, db, models.IntegrationProviderFulfillHub, defaultMetricsWindow, storeId)
		active := HasRecentActivity(ctx, db, models.IntegrationProviderFulfillHub, storeId, healthIdleWindow)
		c.JSON(http.StatusOK, ClassifyHealth(snapshot, active))
	}
}

// HealthCheckHandler is the active probe: unlike HealthHandler it records
// the outcome in the integration log.
func HealthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		health := TriggerHealthCheck(ctx, config.GetDB(), storeId)
		c.JSON(http.StatusOK, health)
	}
}

func AlertsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		hours := 24
		if v := strings.TrimSpace(c.Query("hours")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 720 {
				hours = n
			}
		}
		level := strings.TrimSpace(c.Query("level"))

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		alerts, err := ListAlerts(ctx, config.GetDB(), storeId, hours, level)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		items := make([]AlertResponse, 0, len(alerts))
		for _, alert := range alerts {
			items = append(items, AlertResponse{
				ID:              alert.ID,
				IntegrationType: alert.IntegrationType,
				Operation:       alert.Operation,
				Level:           alert.Level,
				Type:            alert.Type,
				Message:         alert.Message,
				Metadata:        json.RawMessage(alert.MetadataJSON),
				CreatedAt:       alert.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func TrendsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		days := 7
		if v := strings.TrimSpace(c.Query("days")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 90 {
				days = n
			}
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		report := ComputeTrends(ctx, config.GetDB(), models.IntegrationProviderFulfillHub, days, storeId)
		c.JSON(http.StatusOK, report)
	}
}

func RetryFailedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetStoreIdInContext(c.Request.Context(), storeId)
		queued, err := RetryFailedJobs(ctx, config.GetDB(), storeId)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"queued": queued})
	}
}

// CleanupHandler runs the retention sweep on demand. Platform admins only;
// the scheduled path is cmd/log-cleanup.
func CleanupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := loadSessionUser(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if user.Role != models.UserRoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		days := defaultLogRetentionDays
		if v := strings.TrimSpace(c.Query("days")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				days = n
			}
		}

		removed, err := CleanupOldJobs(c.Request.Context(), config.GetDB(), days)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	}
}

// loadSessionUser resolves the session username to a User row, consulting
// the redis cache before the database.
func loadSessionUser(ctx context.Context) (*models.User, error) {
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || strings.TrimSpace(username) == "" {
		return nil, errors.New("unauthorized")
	}

	var user models.User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return nil, err
	}
	if !exists {
		db := config.GetDB()
		if db == nil {
			return nil, errors.New("db is nil")
		}
		if err := db.WithContext(ctx).
			Model(&models.User{}).
			Where("username = ?", username).
			Take(&user).Error; err != nil {
			return nil, errors.New("unauthorized")
		}
	}
	return &user, nil
}

func resolveStoreID(c *gin.Context) (string, error) {
	storeId := strings.TrimSpace(c.Query("store_id"))
	if storeId != "" {
		if err := authorizeInternalStore(c.Request.Context(), storeId); err != nil {
			return "", err
		}
		return storeId, nil
	}

	user, err := loadSessionUser(c.Request.Context())
	if err != nil {
		return "", err
	}
	storeId = strings.TrimSpace(user.StoreId)
	if storeId == "" {
		return "", errors.New("store_id is required")
	}
	return storeId, nil
}

func authorizeInternalStore(ctx context.Context, storeId string) error {
	if storeId == "" {
		return errors.New("store_id is required")
	}
	user, err := loadSessionUser(ctx)
	if err != nil {
		return err
	}
	if user.Role == models.UserRoleAdmin {
		return nil
	}
	if user.StoreId != storeId {
		return errors.New("unauthorized")
	}
	return nil
}

func getIntegration(db *gorm.DB, storeId string) (*models.Integration, error) {
	var integration models.Integration
	err := db.Where("store_id = ? AND provider = ?", storeId, models.IntegrationProviderFulfillHub).Take(&integration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &integration, nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func mapRunToResponse(run models.IntegrationSyncRun, includeResults bool) SyncRunResponse {
	resp := SyncRunResponse{
		ID:            run.ID,
		Status:        run.Status,
		StartedAt:     formatTime(run.StartedAt),
		FinishedAt:    formatTime(run.FinishedAt),
		DurationMs:    run.DurationMs,
		RecordsSynced: run.RecordsSynced,
		ErrorCount:    run.ErrorCount,
		TriggeredBy:   run.TriggeredBy,
	}
	if includeResults && len(run.StatsJSON) > 0 {
		var results map[string]SyncResult
		if err := json.Unmarshal(run.StatsJSON, &results); err == nil {
			resp.Results = results
		}
	}
	return resp
}
