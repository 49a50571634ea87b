package fulfillsync

import "encoding/json"

// Entity type names, also used as sync stage keys in results and run stats.
const (
	EntityWarehouses = "warehouses"
	EntityLocations  = "locations"
	EntityProducts   = "products"
	EntityInventory  = "inventory"
	EntityAll        = "all"
)

// Operation names recorded in the integration log.
const (
	OpSyncWarehouses = "sync_warehouses"
	OpSyncLocations  = "sync_locations"
	OpSyncProducts   = "sync_products"
	OpSyncInventory  = "sync_inventory"
	OpHealthCheck    = "health_check"
	OpWebhook        = "webhook"
)

// SyncResult is the per-entity-type outcome of one reconciliation stage.
// TotalCount is the number of records fetched from the provider; records
// that failed to upsert are neither added nor updated and only appear in
// the integration log, so AddedCount+UpdatedCount <= TotalCount.
type SyncResult struct {
	TotalCount   int `json:"total_count"`
	AddedCount   int `json:"added_count"`
	UpdatedCount int `json:"updated_count"`
}

func operationForEntity(entity string) string {
	switch entity {
	case EntityWarehouses:
		return OpSyncWarehouses
	case EntityLocations:
		return OpSyncLocations
	case EntityProducts:
		return OpSyncProducts
	case EntityInventory:
		return OpSyncInventory
	default:
		return "sync_" + entity
	}
}

// SyncEntities selects which stages a run covers.
type SyncEntities struct {
	Warehouses bool `json:"warehouses"`
	Locations  bool `json:"locations"`
	Products   bool `json:"products"`
	Inventory  bool `json:"inventory"`
}

func DefaultEntities() SyncEntities {
	return SyncEntities{
		Warehouses: true,
		Locations:  true,
		Products:   true,
		Inventory:  true,
	}
}

func DecodeEntities(raw []byte) SyncEntities {
	if len(raw) == 0 {
		return DefaultEntities()
	}
	var ent SyncEntities
	if err := json.Unmarshal(raw, &ent); err != nil {
		return DefaultEntities()
	}
	return ent
}

func EncodeEntities(ent SyncEntities) []byte {
	b, _ := json.Marshal(ent)
	return b
}

func isEmptyEntities(ent SyncEntities) bool {
	return !ent.Warehouses && !ent.Locations && !ent.Products && !ent.Inventory
}

func entitiesFromParam(entity string) (SyncEntities, bool) {
	switch entity {
	case "", EntityAll:
		return DefaultEntities(), true
	case EntityWarehouses:
		return SyncEntities{Warehouses: true}, true
	case EntityLocations:
		return SyncEntities{Locations: true}, true
	case EntityProducts:
		return SyncEntities{Products: true}, true
	case EntityInventory:
		return SyncEntities{Inventory: true}, true
	default:
		return SyncEntities{}, false
	}
}

type ConnectRequest struct {
	MerchantId string `json:"merchantId" binding:"required"`
	APIKey     string `json:"apiKey" binding:"required"`
}

type UpdateSettingsRequest struct {
	Entities SyncEntities `json:"entities"`
}

type TriggerSyncRequest struct {
	Entity string `json:"entity"`
}

type StatusResponse struct {
	Connection        ConnectionResponse `json:"connection"`
	LastSyncAt        *string            `json:"lastSyncAt"`
	LastSuccessSyncAt *string            `json:"lastSuccessSyncAt"`
	Entities          SyncEntities       `json:"entities"`
}

type ConnectionResponse struct {
	Status     string `json:"status"`
	MerchantId string `json:"merchantId"`
}

type SyncResponse struct {
	Success bool                  `json:"success"`
	RunId   uint                  `json:"runId"`
	Results map[string]SyncResult `json:"results"`
}

type SyncHistoryResponse struct {
	Items []SyncRunResponse `json:"items"`
}

type SyncRunResponse struct {
	ID            uint                  `json:"id"`
	Status        string                `json:"status"`
	StartedAt     *string               `json:"startedAt"`
	FinishedAt    *string               `json:"finishedAt"`
	DurationMs    int64                 `json:"durationMs"`
	RecordsSynced int                   `json:"recordsSynced"`
	ErrorCount    int                   `json:"errorCount"`
	TriggeredBy   string                `json:"triggeredBy"`
	Results       map[string]SyncResult `json:"results,omitempty"`
}

type AlertResponse struct {
	ID              uint            `json:"id"`
	IntegrationType string          `json:"integrationType"`
	Operation       string          `json:"operation"`
	Level           string          `json:"level"`
	Type            string          `json:"type"`
	Message         string          `json:"message"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	CreatedAt       string          `json:"createdAt"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type SyncPubSubPayload struct {
	RunId         uint   `json:"run_id"`
	StoreId       string `json:"store_id"`
	IntegrationId uint   `json:"integration_id"`
}
