package fulfillsync

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Warehouse{},
		&models.InventoryLocation{},
		&models.Product{},
		&models.ProductCategory{},
		&models.Integration{},
		&models.IntegrationSyncRun{},
		&models.IntegrationLog{},
		&models.IntegrationAlert{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fakeProvider serves canned page responses per path. Paths listed in fail
// answer 500. Records are split into pages of the size the client asks for.
type fakeProvider struct {
	records map[string][]any
	fail    map[string]bool
}

func startProvider(t *testing.T, p fakeProvider) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.fail[r.URL.Path] {
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
		records, ok := p.records[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if pageSize < 1 {
			pageSize = len(records)
		}
		start := (page - 1) * pageSize
		if start > len(records) {
			start = len(records)
		}
		end := start + pageSize
		if end > len(records) {
			end = len(records)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": records[start:end]})
	}))
	t.Cleanup(srv.Close)

	t.Setenv("FULFILLHUB_API_BASE_URL", srv.URL)
	t.Setenv("FULFILLHUB_RATE_LIMIT_PER_MIN", "600000")
	return srv
}

func newTestSyncer(t *testing.T, db *gorm.DB, storeId string) *syncer {
	t.Helper()
	client, err := newFulfillClient("test-key")
	if err != nil {
		t.Fatalf("newFulfillClient: %v", err)
	}
	return newSyncer(db, client, storeId)
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
