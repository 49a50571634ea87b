package fulfillsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"github.com/mschmoyer/schmo-store-front-sub003/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fulfillWarehouse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Region     string `json:"region"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Active     *bool  `json:"active"`
}

type fulfillLocation struct {
	ID          string `json:"id"`
	WarehouseID string `json:"warehouse_id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Pickable    *bool  `json:"pickable"`
	Active      *bool  `json:"active"`
}

type fulfillProduct struct {
	ID          string      `json:"id"`
	Sku         string      `json:"sku"`
	Barcode     string      `json:"barcode"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Price       json.Number `json:"price"`
	Cost        json.Number `json:"cost"`
	WeightGrams json.Number `json:"weight_grams"`
	Active      *bool       `json:"active"`
}

type fulfillStock struct {
	Sku          string      `json:"sku"`
	WarehouseID  string      `json:"warehouse_id"`
	QtyOnHand    json.Number `json:"qty_on_hand"`
	QtyAvailable json.Number `json:"qty_available"`
}

// syncer runs the reconciliation stages for one store against one provider
// connection. It is built per run and holds the per-run category cache.
type syncer struct {
	db              *gorm.DB
	client          *fulfillClient
	events          *EventLogger
	storeId         string
	integrationType string

	// category name -> local id, valid for one run only. Avoids creating
	// the same category twice when a name recurs within a pass.
	categoryCache map[string]int
}

func newSyncer(db *gorm.DB, client *fulfillClient, storeId string) *syncer {
	return &syncer{
		db:              db,
		client:          client,
		events:          NewEventLogger(db),
		storeId:         storeId,
		integrationType: models.IntegrationProviderFulfillHub,
		categoryCache:   map[string]int{},
	}
}

// syncWarehouses reconciles the provider's warehouse listing into local rows
// matched on (store_id, external_id).
func (s *syncer) syncWarehouses(ctx context.Context) (SyncResult, error) {
	records, err := s.client.fetchAll(ctx, pathWarehouses)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{TotalCount: len(records)}
	for _, raw := range records {
		var wh fulfillWarehouse
		if err := json.Unmarshal(raw, &wh); err != nil {
			s.logRecordFailure(ctx, OpSyncWarehouses, raw, err)
			continue
		}
		extID := strings.TrimSpace(wh.ID)
		if extID == "" {
			s.logRecordFailure(ctx, OpSyncWarehouses, raw, errors.New("warehouse id missing"))
			continue
		}

		name := strings.TrimSpace(wh.Name)
		if name == "" {
			name = "Warehouse " + extID
		}
		fields := map[string]interface{}{
			"name":        name,
			"code":        strings.TrimSpace(wh.Code),
			"address":     strings.TrimSpace(wh.Address),
			"city":        strings.TrimSpace(wh.City),
			"region":      strings.TrimSpace(wh.Region),
			"country":     strings.TrimSpace(wh.Country),
			"postal_code": strings.TrimSpace(wh.PostalCode),
			"is_active":   boolOrDefault(wh.Active, true),
		}

		var existing models.Warehouse
		err := s.db.WithContext(ctx).
			Where("store_id = ? AND external_id = ?", s.storeId, extID).
			Take(&existing).Error
		switch {
		case err == nil:
			if uerr := s.db.WithContext(ctx).Model(&existing).Updates(fields).Error; uerr != nil {
				s.logRecordFailure(ctx, OpSyncWarehouses, raw, uerr)
				continue
			}
			result.UpdatedCount++
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.Warehouse{
				StoreId:    s.storeId,
				ExternalId: extID,
				Name:       name,
				Code:       strings.TrimSpace(wh.Code),
				Address:    strings.TrimSpace(wh.Address),
				City:       strings.TrimSpace(wh.City),
				Region:     strings.TrimSpace(wh.Region),
				Country:    strings.TrimSpace(wh.Country),
				PostalCode: strings.TrimSpace(wh.PostalCode),
				IsActive:   boolPtrOrDefault(wh.Active, true),
			}
			if cerr := s.db.WithContext(ctx).Create(&row).Error; cerr != nil {
				s.logRecordFailure(ctx, OpSyncWarehouses, raw, cerr)
				continue
			}
			result.AddedCount++
		default:
			s.logRecordFailure(ctx, OpSyncWarehouses, raw, err)
		}
	}
	return result, nil
}

// syncLocations reconciles the provider's inventory-warehouse and
// inventory-location listings into one combined result.
func (s *syncer) syncLocations(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	warehouses, err := s.client.fetchAll(ctx, pathInventoryWarehouses)
	if err != nil {
		return SyncResult{}, err
	}
	s.upsertLocationBatch(ctx, warehouses, models.LocationTypeWarehouse, &result)

	locations, err := s.client.fetchAll(ctx, pathInventoryLocations)
	if err != nil {
		return SyncResult{}, err
	}
	s.upsertLocationBatch(ctx, locations, models.LocationTypeLocation, &result)

	return result, nil
}

func (s *syncer) upsertLocationBatch(ctx context.Context, records []json.RawMessage, locType models.LocationType, result *SyncResult) {
	result.TotalCount += len(records)
	for _, raw := range records {
		var loc fulfillLocation
		if err := json.Unmarshal(raw, &loc); err != nil {
			s.logRecordFailure(ctx, OpSyncLocations, raw, err)
			continue
		}
		extID := strings.TrimSpace(loc.ID)
		if extID == "" {
			s.logRecordFailure(ctx, OpSyncLocations, raw, errors.New("location id missing"))
			continue
		}

		name := strings.TrimSpace(loc.Name)
		if name == "" {
			name = "Location " + extID
		}
		fields := map[string]interface{}{
			"warehouse_external_id": strings.TrimSpace(loc.WarehouseID),
			"name":                  name,
			"code":                  strings.TrimSpace(loc.Code),
			"location_type":         locType,
			"is_pickable":           boolOrDefault(loc.Pickable, true),
			"is_active":             boolOrDefault(loc.Active, true),
		}

		var existing models.InventoryLocation
		err := s.db.WithContext(ctx).
			Where("store_id = ? AND external_id = ?", s.storeId, extID).
			Take(&existing).Error
		switch {
		case err == nil:
			if uerr := s.db.WithContext(ctx).Model(&existing).Updates(fields).Error; uerr != nil {
				s.logRecordFailure(ctx, OpSyncLocations, raw, uerr)
				continue
			}
			result.UpdatedCount++
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.InventoryLocation{
				StoreId:             s.storeId,
				ExternalId:          extID,
				WarehouseExternalId: strings.TrimSpace(loc.WarehouseID),
				Name:                name,
				Code:                strings.TrimSpace(loc.Code),
				LocationType:        locType,
				IsPickable:          boolPtrOrDefault(loc.Pickable, true),
				IsActive:            boolPtrOrDefault(loc.Active, true),
			}
			if cerr := s.db.WithContext(ctx).Create(&row).Error; cerr != nil {
				s.logRecordFailure(ctx, OpSyncLocations, raw, cerr)
				continue
			}
			result.AddedCount++
		default:
			s.logRecordFailure(ctx, OpSyncLocations, raw, err)
		}
	}
}

// syncProducts reconciles the provider catalog. The provider's inventory
// listing is fetched independently, summed per SKU across warehouse entries,
// and merged into each product's stock quantity during upsert.
func (s *syncer) syncProducts(ctx context.Context) (SyncResult, error) {
	stockBySku, _, err := s.fetchInventorySums(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	records, err := s.client.fetchAll(ctx, pathProducts)
	if err != nil {
		return SyncResult{}, err
	}

	otherID, err := s.ensureDefaultCategory(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	s.categoryCache = map[string]int{}

	result := SyncResult{TotalCount: len(records)}
	for _, raw := range records {
		var prod fulfillProduct
		if err := json.Unmarshal(raw, &prod); err != nil {
			s.logRecordFailure(ctx, OpSyncProducts, raw, err)
			continue
		}
		extID := strings.TrimSpace(prod.ID)
		if extID == "" {
			s.logRecordFailure(ctx, OpSyncProducts, raw, errors.New("product id missing"))
			continue
		}

		sku := strings.TrimSpace(prod.Sku)
		if sku == "" {
			sku = "FH-" + extID
		}
		name := strings.TrimSpace(prod.Name)
		if name == "" {
			name = "Product " + extID
		}

		categoryID := s.resolveCategory(ctx, prod.Category, otherID)

		stock := decimal.Zero
		if qty, ok := stockBySku[sku]; ok {
			stock = qty
		}

		fields := map[string]interface{}{
			"name":           name,
			"description":    strings.TrimSpace(prod.Description),
			"category_id":    categoryID,
			"sku":            sku,
			"barcode":        strings.TrimSpace(prod.Barcode),
			"sales_price":    decimalFromNumber(prod.Price),
			"purchase_price": decimalFromNumber(prod.Cost),
			"stock_on_hand":  stock,
			"weight_grams":   decimalFromNumber(prod.WeightGrams),
			"is_active":      boolOrDefault(prod.Active, true),
		}

		var existing models.Product
		err := s.db.WithContext(ctx).
			Where("store_id = ? AND external_id = ?", s.storeId, extID).
			Take(&existing).Error
		switch {
		case err == nil:
			if uerr := s.db.WithContext(ctx).Model(&existing).Updates(fields).Error; uerr != nil {
				s.logRecordFailure(ctx, OpSyncProducts, raw, uerr)
				continue
			}
			result.UpdatedCount++
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.Product{
				StoreId:       s.storeId,
				ExternalId:    extID,
				Name:          name,
				Description:   strings.TrimSpace(prod.Description),
				CategoryId:    categoryID,
				Sku:           sku,
				Barcode:       strings.TrimSpace(prod.Barcode),
				SalesPrice:    decimalFromNumber(prod.Price),
				PurchasePrice: decimalFromNumber(prod.Cost),
				StockOnHand:   stock,
				WeightGrams:   decimalFromNumber(prod.WeightGrams),
				IsActive:      boolPtrOrDefault(prod.Active, true),
			}
			if cerr := s.db.WithContext(ctx).Create(&row).Error; cerr != nil {
				s.logRecordFailure(ctx, OpSyncProducts, raw, cerr)
				continue
			}
			result.AddedCount++
		default:
			s.logRecordFailure(ctx, OpSyncProducts, raw, err)
		}
	}
	return result, nil
}

// syncInventory re-fetches the inventory listing and pushes per-SKU sums
// into the matching products' stock quantities. SKUs without a local product
// are recorded as warnings, not failures.
func (s *syncer) syncInventory(ctx context.Context) (SyncResult, error) {
	stockBySku, entryCount, err := s.fetchInventorySums(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{TotalCount: entryCount}

	skus := make([]string, 0, len(stockBySku))
	for sku := range stockBySku {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	for _, sku := range skus {
		qty := stockBySku[sku]
		var product models.Product
		err := s.db.WithContext(ctx).
			Where("store_id = ? AND sku = ?", s.storeId, sku).
			Take(&product).Error
		switch {
		case err == nil:
			if uerr := s.db.WithContext(ctx).Model(&product).
				Update("stock_on_hand", qty).Error; uerr != nil {
				s.logRecordFailure(ctx, OpSyncInventory, nil, uerr)
				continue
			}
			result.UpdatedCount++
		case errors.Is(err, gorm.ErrRecordNotFound):
			_, _ = s.events.Log(ctx, LogEntryInput{
				StoreId:         s.storeId,
				IntegrationType: s.integrationType,
				Operation:       OpSyncInventory,
				Status:          models.LogStatusWarning,
				ErrorMessage:    fmt.Sprintf("no local product for SKU %s", sku),
			})
		default:
			s.logRecordFailure(ctx, OpSyncInventory, nil, err)
		}
	}
	return result, nil
}

// fetchInventorySums pages through the inventory listing and sums quantities
// per SKU across warehouse entries. Returns the raw entry count so callers
// can report how many records the provider served.
func (s *syncer) fetchInventorySums(ctx context.Context) (map[string]decimal.Decimal, int, error) {
	records, err := s.client.fetchAll(ctx, pathInventory)
	if err != nil {
		return nil, 0, err
	}

	sums := make(map[string]decimal.Decimal)
	for _, raw := range records {
		var entry fulfillStock
		if err := json.Unmarshal(raw, &entry); err != nil {
			s.logRecordFailure(ctx, OpSyncInventory, raw, err)
			continue
		}
		sku := strings.TrimSpace(entry.Sku)
		if sku == "" {
			continue
		}
		qty := decimalFromNumber(entry.QtyOnHand)
		if qty.IsZero() {
			qty = decimalFromNumber(entry.QtyAvailable)
		}
		sums[sku] = sums[sku].Add(qty)
	}
	return sums, len(records), nil
}

// ensureDefaultCategory guarantees the "Other" category exists for the store
// before any product upsert and returns its id.
func (s *syncer) ensureDefaultCategory(ctx context.Context) (int, error) {
	var existing models.ProductCategory
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND name = ?", s.storeId, models.DefaultCategoryName).
		Take(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	row := models.ProductCategory{
		StoreId:  s.storeId,
		Name:     models.DefaultCategoryName,
		Slug:     utils.Slugify(models.DefaultCategoryName),
		IsActive: utils.NewTrue(),
	}
	if cerr := s.db.WithContext(ctx).Create(&row).Error; cerr != nil {
		// A concurrent run may have created it between lookup and insert.
		if utils.IsDuplicateKeyError(cerr) {
			if rerr := s.db.WithContext(ctx).
				Where("store_id = ? AND name = ?", s.storeId, models.DefaultCategoryName).
				Take(&existing).Error; rerr == nil {
				return existing.ID, nil
			}
		}
		return 0, cerr
	}
	return row.ID, nil
}

// resolveCategory maps a provider category name (trimmed) to a local
// category id, creating the category on first sight and caching the mapping
// for the remainder of the run. Falls back to the default category when the
// name is blank or the lookup fails.
func (s *syncer) resolveCategory(ctx context.Context, name string, otherID int) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return otherID
	}
	if id, ok := s.categoryCache[name]; ok {
		return id
	}

	var existing models.ProductCategory
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND name = ?", s.storeId, name).
		Take(&existing).Error
	if err == nil {
		s.categoryCache[name] = existing.ID
		return existing.ID
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logRecordFailure(ctx, OpSyncProducts, nil, err)
		return otherID
	}

	row := models.ProductCategory{
		StoreId:  s.storeId,
		Name:     name,
		Slug:     utils.Slugify(name),
		IsActive: utils.NewTrue(),
	}
	if cerr := s.db.WithContext(ctx).Create(&row).Error; cerr != nil {
		if utils.IsDuplicateKeyError(cerr) {
			if rerr := s.db.WithContext(ctx).
				Where("store_id = ? AND name = ?", s.storeId, name).
				Take(&existing).Error; rerr == nil {
				s.categoryCache[name] = existing.ID
				return existing.ID
			}
		}
		s.logRecordFailure(ctx, OpSyncProducts, nil, cerr)
		return otherID
	}
	s.categoryCache[name] = row.ID
	return row.ID
}

func (s *syncer) logRecordFailure(ctx context.Context, operation string, raw json.RawMessage, err error) {
	_, _ = s.events.Log(ctx, LogEntryInput{
		StoreId:         s.storeId,
		IntegrationType: s.integrationType,
		Operation:       operation,
		Status:          models.LogStatusFailure,
		RequestData:     raw,
		ErrorMessage:    err.Error(),
	})
}

func decimalFromNumber(num json.Number) decimal.Decimal {
	if num.String() == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(num.String()); err == nil {
		return d
	}
	return decimal.Zero
}

func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func boolPtrOrDefault(b *bool, def bool) *bool {
	v := boolOrDefault(b, def)
	return &v
}
