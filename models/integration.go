package models

import "time"

const (
	IntegrationProviderFulfillHub = "fulfillhub"
)

const (
	IntegrationStatusConnected    = "connected"
	IntegrationStatusDisconnected = "disconnected"
	IntegrationStatusError        = "error"
)

const (
	SyncRunStatusQueued  = "queued"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusPartial = "partial"
)

const (
	SyncTriggeredManual   = "manual"
	SyncTriggeredRetry    = "retry"
	SyncTriggeredSchedule = "schedule"
	SyncTriggeredSystem   = "system"
)

// Integration is the per-store provider connection. Credential encryption is
// handled upstream; AuthSecretRef holds the already-decrypted API key handed
// to this subsystem.
type Integration struct {
	ID                uint       `gorm:"primary_key" json:"id"`
	StoreId           string     `gorm:"index;not null" json:"store_id"`
	Provider          string     `gorm:"index;size:50;not null" json:"provider"`
	Status            string     `gorm:"size:20;not null" json:"status"`
	AuthType          string     `gorm:"size:20" json:"auth_type"`
	AuthSecretRef     string     `gorm:"type:text" json:"auth_secret_ref"`
	MerchantId        string     `gorm:"size:100" json:"merchant_id"`
	SettingsJSON      []byte     `gorm:"type:json" json:"settings"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	LastSuccessSyncAt *time.Time `json:"last_success_sync_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IntegrationSyncRun is one queued or completed reconciliation run.
type IntegrationSyncRun struct {
	ID            uint       `gorm:"primary_key" json:"id"`
	StoreId       string     `gorm:"index;not null" json:"store_id"`
	IntegrationId uint       `gorm:"index;not null" json:"integration_id"`
	Provider      string     `gorm:"index;size:50;not null" json:"provider"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	EntityTypes   string     `gorm:"size:255" json:"entity_types"`
	StatsJSON     []byte     `gorm:"type:json" json:"stats"`
	RecordsSynced int        `json:"records_synced"`
	ErrorCount    int        `json:"error_count"`
	ParentRunId   *uint      `gorm:"index" json:"parent_run_id"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
