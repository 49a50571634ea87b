package fulfillsync

import (
	"context"
	"encoding/json"

	"github.com/mschmoyer/schmo-store-front-sub003/config"
	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"gorm.io/gorm"
)

// EventLogger appends one immutable IntegrationLog row per operation outcome.
// A failure write synchronously triggers alert-condition evaluation for the
// same (store, integration type, operation) before Log returns.
type EventLogger struct {
	db     *gorm.DB
	alerts *AlertEngine
}

func NewEventLogger(db *gorm.DB) *EventLogger {
	return &EventLogger{db: db, alerts: NewAlertEngine(db)}
}

type LogEntryInput struct {
	StoreId         string
	IntegrationType string
	Operation       string
	Status          string
	RequestData     any
	ResponseData    any
	ExecutionTimeMs *int64
	ErrorMessage    string
}

// Log persists the entry and returns its id. It fails only when the log
// store itself is unavailable; alert evaluation errors are logged and
// swallowed so a flaky alert query can never break the operation path.
func (l *EventLogger) Log(ctx context.Context, in LogEntryInput) (uint, error) {
	row := models.IntegrationLog{
		StoreId:         in.StoreId,
		IntegrationType: in.IntegrationType,
		Operation:       in.Operation,
		Status:          in.Status,
		RequestData:     marshalPayload(in.RequestData),
		ResponseData:    marshalPayload(in.ResponseData),
		ExecutionTimeMs: in.ExecutionTimeMs,
		ErrorMessage:    in.ErrorMessage,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, err
	}

	if in.Status == models.LogStatusFailure {
		if err := l.alerts.Evaluate(ctx, in.StoreId, in.IntegrationType, in.Operation); err != nil {
			config.LogError(config.GetLogger(), "events.go", "Log", "alerts.Evaluate", in.Operation, err)
		}
	}
	return row.ID, nil
}

func marshalPayload(v any) []byte {
	if v == nil {
		return nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw
	}
	if raw, ok := v.([]byte); ok {
		return raw
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func int64Ptr(v int64) *int64 {
	return &v
}
