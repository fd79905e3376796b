package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000,
		Burst:             1000,
		MaxRetries:        2,
		RetryDelay:        time.Millisecond,
	})
}

func TestClient_SearchItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/12345/items/search", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("offset"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer APP_USR-1", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"seller_id":"12345","results":["MLA1","MLA2"],"paging":{"total":52,"offset":50,"limit":50}}`)
	})

	page, err := client.SearchItems(context.Background(), "APP_USR-1", "12345", 50, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"MLA1", "MLA2"}, page.ItemIDs)
	assert.Equal(t, 52, page.Total)
	assert.Equal(t, 50, page.Offset)
}

const itemJSON = `{
	"id": "MLA1",
	"title": "Camiseta",
	"status": "paused",
	"available_quantity": 7,
	"seller_custom_field": null,
	"attributes": [{"id": "SELLER_SKU", "name": "SKU", "value_name": "CAM-01"}],
	"variations": [
		{"id": 1801, "available_quantity": 3, "seller_custom_field": "CAM-01-RED", "attributes": []},
		{"id": 1802, "available_quantity": 0, "attributes": [{"id": "SELLER_SKU", "value_name": "CAM-01-BLUE"}]}
	]
}`

func TestClient_GetItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "MLA1,MLA404", r.URL.Query().Get("ids"))
		assert.Equal(t, "all", r.URL.Query().Get("include_attributes"))
		fmt.Fprintf(w, `[{"code":200,"body":%s},{"code":404,"body":{"message":"not found"}}]`, itemJSON)
	})

	items, err := client.GetItems(context.Background(), "tok", []string{"MLA1", "MLA404"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "MLA1", item.ID)
	assert.Equal(t, domain.ItemStatePaused, item.Status)
	assert.Equal(t, 7, item.AvailableQuantity)
	assert.Empty(t, item.SellerSKU)
	require.Len(t, item.Attributes, 1)
	assert.Equal(t, "CAM-01", item.Attributes[0].ValueName)

	require.Len(t, item.Variations, 2)
	assert.Equal(t, "1801", item.Variations[0].ID)
	assert.Equal(t, "CAM-01-RED", item.Variations[0].SellerSKU)
	sku, ok := domain.ExtractSKU(item.Variations[1], item)
	require.True(t, ok)
	assert.Equal(t, "CAM-01-BLUE", sku)
}

func TestClient_GetItems_Chunks(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		assert.LessOrEqual(t, len(ids), MultiGetLimit)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = fmt.Sprintf(`{"code":200,"body":{"id":%q,"status":"active"}}`, id)
		}
		fmt.Fprint(w, "["+strings.Join(parts, ",")+"]")
	})

	ids := make([]string, 45)
	for i := range ids {
		ids[i] = fmt.Sprintf("MLA%d", i)
	}

	items, err := client.GetItems(context.Background(), "tok", ids)
	require.NoError(t, err)
	assert.Len(t, items, 45)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "MLA44", items[44].ID)
}

const orderJSON = `{
	"id": 2000001,
	"status": "paid",
	"date_created": "2024-01-11T10:30:00.000-03:00",
	"total_amount": 150.5,
	"paid_amount": 150.5,
	"buyer": {"id": 777, "nickname": "BUYER"},
	"shipping": {"id": 40001},
	"order_items": [
		{
			"item": {"id": "MLA1", "title": "Camiseta", "seller_sku": "CAM-01-RED", "variation_id": 1801},
			"quantity": 2,
			"unit_price": 60,
			"full_unit_price": 75
		},
		{
			"item": {"id": "MLA2", "title": "Gorra", "seller_sku": null, "seller_custom_field": " GOR-1 ", "variation_id": null},
			"quantity": 1,
			"unit_price": 30.5,
			"full_unit_price": 30.5
		}
	]
}`

func TestClient_SearchOrders(t *testing.T) {
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/orders/search", r.URL.Path)
		assert.Equal(t, "12345", q.Get("seller"))
		assert.Equal(t, "2024-01-10T00:00:00.000+00:00", q.Get("order.date_created.from"))
		assert.Equal(t, "date_asc", q.Get("sort"))
		assert.Equal(t, "0", q.Get("offset"))
		assert.Equal(t, "50", q.Get("limit"))
		fmt.Fprintf(w, `{"results":[%s],"paging":{"total":1,"offset":0,"limit":50}}`, orderJSON)
	})

	page, err := client.SearchOrders(context.Background(), "tok", domain.OrderQuery{
		SellerID: "12345", CreatedFrom: from, Offset: 0, Limit: 50,
	})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, 1, page.Total)

	order := page.Orders[0].Order
	assert.Equal(t, "2000001", order.OrderID)
	assert.Equal(t, "paid", order.Status)
	assert.Equal(t, time.Date(2024, 1, 11, 13, 30, 0, 0, time.UTC), order.DateCreated)
	assert.InDelta(t, 150.5, order.TotalAmount, 0.001)
	require.NotNil(t, order.PaidAmount)
	assert.Equal(t, "777", order.BuyerID)
	assert.Equal(t, "40001", order.ShipmentID)
	assert.JSONEq(t, orderJSON, string(order.RawPayload))

	items := page.Orders[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, "CAM-01-RED", items[0].SKU)
	assert.Equal(t, "1801", items[0].VariationID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.InDelta(t, 15.0, items[0].Discount, 0.001)
	assert.Contains(t, string(items[0].RawPayload), `"quantity": 2`)

	assert.Equal(t, "GOR-1", items[1].SKU)
	assert.Empty(t, items[1].VariationID)
	assert.Zero(t, items[1].Discount)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"results":[],"paging":{"total":0}}`)
	})

	_, err := client.SearchItems(context.Background(), "tok", "1", 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.SearchItems(context.Background(), "tok", "1", 0, 50)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"invalid access token"}`)
	})

	_, err := client.SearchOrders(context.Background(), "tok", domain.OrderQuery{SellerID: "1", Limit: 50})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "invalid access token")
	assert.NotContains(t, err.Error(), "seller=")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RateLimitedSetsBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	client := NewClient(Config{BaseURL: srv.URL, MaxRetries: 0})

	_, err := client.SearchItems(context.Background(), "tok", "1", 0, 50)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.WithinDuration(t, time.Now().Add(120*time.Second), client.RateLimiter().RetryAt(), 5*time.Second)
	assert.False(t, client.RateLimiter().Allow())
}

func TestClient_RetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		cancel()
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.SearchItems(ctx, "tok", "1", 0, 50)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_TransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Config{BaseURL: url, MaxRetries: 1, RetryDelay: time.Millisecond})
	_, err := client.SearchItems(context.Background(), "tok", "1", 0, 50)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestClient_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `not json`)
	})

	_, err := client.SearchItems(context.Background(), "tok", "1", 0, 50)
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
	assert.Zero(t, parseRetryAfter("-1"))
}

func TestConfigFromSettings(t *testing.T) {
	s := domain.DefaultAppSettings().Marketplace
	cfg := ConfigFromSettings(s)
	assert.Equal(t, s.BaseURL, cfg.BaseURL)
	assert.Equal(t, s.RequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, s.MaxRetries, cfg.MaxRetries)

	d := Config{}.withDefaults()
	assert.Equal(t, DefaultTimeout, d.RequestTimeout)
	assert.Equal(t, DefaultRetryDelay, d.RetryDelay)
	assert.Equal(t, DefaultRateLimit.BurstSize, d.Burst)
}
