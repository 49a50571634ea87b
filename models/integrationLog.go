package models

import "time"

const (
	LogStatusSuccess = "success"
	LogStatusFailure = "failure"
	LogStatusWarning = "warning"
)

const (
	AlertLevelInfo     = "info"
	AlertLevelWarning  = "warning"
	AlertLevelCritical = "critical"
)

const (
	AlertTypeHighErrorRate       = "high_error_rate"
	AlertTypeConsecutiveFailures = "consecutive_failures"
	AlertTypeHealthDegraded      = "health_degraded"
)

// IntegrationLog is the append-only operation log. Rows are never mutated or
// deleted here; retention is handled by the cleanup maintenance operation.
type IntegrationLog struct {
	ID              uint      `gorm:"primary_key" json:"id"`
	StoreId         string    `gorm:"index:idx_log_store_type,priority:1;not null" json:"store_id"`
	IntegrationType string    `gorm:"index:idx_log_store_type,priority:2;size:50;not null" json:"integration_type"`
	Operation       string    `gorm:"index;size:64;not null" json:"operation"`
	Status          string    `gorm:"index;size:20;not null" json:"status"`
	RequestData     []byte    `gorm:"type:json" json:"request_data"`
	ResponseData    []byte    `gorm:"type:json" json:"response_data"`
	ExecutionTimeMs *int64    `json:"execution_time_ms"`
	ErrorMessage    string    `gorm:"type:text" json:"error_message"`
	CreatedAt       time.Time `gorm:"index;autoCreateTime" json:"created_at"`
}

// IntegrationAlert rows are append-only and intentionally not deduplicated;
// every qualifying evaluation emits a new row.
type IntegrationAlert struct {
	ID              uint      `gorm:"primary_key" json:"id"`
	StoreId         string    `gorm:"index;not null" json:"store_id"`
	IntegrationType string    `gorm:"size:50;not null" json:"integration_type"`
	Operation       string    `gorm:"size:64" json:"operation"`
	Level           string    `gorm:"index;size:20;not null" json:"level"`
	Type            string    `gorm:"size:64;not null" json:"type"`
	Message         string    `gorm:"type:text" json:"message"`
	MetadataJSON    []byte    `gorm:"type:json" json:"metadata"`
	CreatedAt       time.Time `gorm:"index;autoCreateTime" json:"created_at"`
}
