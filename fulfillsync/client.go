package fulfillsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider API paths. The FulfillHub catalog/inventory API is paginated with
// page/page_size query parameters and authenticated by API-key header.
const (
	pathWarehouses          = "/api/v1/warehouses"
	pathInventoryWarehouses = "/api/v1/inventory-warehouses"
	pathInventoryLocations  = "/api/v1/inventory-locations"
	pathProducts            = "/api/v1/products"
	pathInventory           = "/api/v1/inventory"
)

const defaultPageSize = 100

type fulfillClient struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	pageSize  int
	http      *http.Client
	limiter   <-chan time.Time
}

func newFulfillClient(apiKey string) (*fulfillClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("FULFILLHUB_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.fulfillhub.com"
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("FULFILLHUB_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("fulfillhub api key is empty")
	}
	pageSize := defaultPageSize
	if v := strings.TrimSpace(os.Getenv("FULFILLHUB_PAGE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	rateLimitPerMin := int64(60)
	if v := strings.TrimSpace(os.Getenv("FULFILLHUB_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &fulfillClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		pageSize:  pageSize,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

type fulfillListResponse struct {
	Data  []json.RawMessage `json:"data"`
	Items []json.RawMessage `json:"items"`
}

func (c *fulfillClient) getPage(ctx context.Context, path string, page int) ([]json.RawMessage, error) {
	<-c.limiter
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(c.pageSize))

	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fulfillhub api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed fulfillListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	records := parsed.Data
	if len(records) == 0 {
		records = parsed.Items
	}
	return records, nil
}

// fetchAll walks pages starting at 1 and stops when a page comes back
// shorter than the page size. A fetch error ends the whole listing; partial
// results are not returned.
func (c *fulfillClient) fetchAll(ctx context.Context, path string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for page := 1; ; page++ {
		records, err := c.getPage(ctx, path, page)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if len(records) < c.pageSize {
			return all, nil
		}
	}
}
