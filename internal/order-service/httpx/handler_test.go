package httpx_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/order-choreography/internal/order-service/app"
	"github.com/jcmexdev/order-choreography/internal/order-service/cache"
	"github.com/jcmexdev/order-choreography/internal/order-service/domain"
	"github.com/jcmexdev/order-choreography/internal/order-service/httpx"
	"github.com/jcmexdev/order-choreography/internal/pkg/apperr"
	"github.com/jcmexdev/order-choreography/internal/pkg/eventbus"
)

type memStore struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newMemStore() *memStore { return &memStore{orders: make(map[string]*domain.Order)} }

func (m *memStore) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, &apperr.NotFoundError{Entity: "order", ID: id}
	}
	return o, nil
}

func (m *memStore) GetByCustomer(_ context.Context, customerID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) GetByStatus(_ context.Context, status domain.Status) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return &apperr.NotFoundError{Entity: "order", ID: o.ID}
	}
	m.orders[o.ID] = o
	return nil
}

type memKV struct {
	mu      sync.Mutex
	entries map[string]string
}

func (m *memKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key], nil
}

func (m *memKV) GenerateKey(operation, key string) string {
	return fmt.Sprintf("order:%s:%s", operation, key)
}

type stubStock struct{ available map[string]int }

func (s *stubStock) ProductStock(_ context.Context, productID string) (*app.ProductStock, error) {
	avail, ok := s.available[productID]
	if !ok {
		return nil, &apperr.NotFoundError{Entity: "product", ID: productID}
	}
	return &app.ProductStock{ProductID: productID, Available: avail}, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, string, string) {}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := newMemStore()
	svc := app.NewService(store,
		cache.NewReadThrough(store, &memKV{entries: make(map[string]string)}),
		eventbus.NewMemory(),
		&stubStock{available: map[string]int{"product-1": 100, "product-2": 500}},
		noopNotifier{})
	srv := httptest.NewServer(httpx.NewRouter(httpx.NewHandler(svc)))
	t.Cleanup(srv.Close)
	return srv
}

const createBody = `{
	"customer_id": "customer-123",
	"lines": [
		{"product_id": "product-1", "product_name": "Laptop", "quantity": 2, "unit_price": 1500.00},
		{"product_id": "product-2", "product_name": "Mouse", "quantity": 3, "unit_price": 50.00}
	]
}`

func createOrder(t *testing.T, srv *httptest.Server) httpx.OrderResponse {
	t.Helper()
	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(createBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var order httpx.OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	return order
}

func do(t *testing.T, method, url string) (*http.Response, httpx.ErrorResponse) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var body httpx.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestCreateOrder_Created(t *testing.T) {
	srv := newServer(t)

	order := createOrder(t, srv)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "Pending", order.Status)
	assert.InDelta(t, 3150.00, order.TotalAmount, 1e-9)
	assert.Len(t, order.Lines, 2)
}

func TestCreateOrder_BadPayload(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(`{"customer_id": ""}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrder_InsufficientStockConflict(t *testing.T) {
	srv := newServer(t)

	body := `{"customer_id": "customer-123", "lines": [
		{"product_id": "product-1", "product_name": "Laptop", "quantity": 500, "unit_price": 1500.00}
	]}`
	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var errResp httpx.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "insufficient_stock", errResp.Error)
}

func TestGetOrder_RoundTripAndNotFound(t *testing.T) {
	srv := newServer(t)
	order := createOrder(t, srv)

	resp, err := http.Get(srv.URL + "/orders/" + order.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got httpx.OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, order.ID, got.ID)

	missing, errResp := do(t, http.MethodGet, srv.URL+"/orders/no-such-order")
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.Equal(t, "not_found", errResp.Error)
}

func TestGetOrdersByStatus(t *testing.T) {
	srv := newServer(t)
	createOrder(t, srv)

	resp, err := http.Get(srv.URL + "/orders/status/pending")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []httpx.OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	assert.Len(t, orders, 1)

	bad, errResp := do(t, http.MethodGet, srv.URL+"/orders/status/shipped")
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	assert.Equal(t, "validation_error", errResp.Error)
}

func TestApproveThenApproveAgain(t *testing.T) {
	srv := newServer(t)
	order := createOrder(t, srv)

	resp, _ := do(t, http.MethodPut, srv.URL+"/orders/"+order.ID+"/approve")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	again, errResp := do(t, http.MethodPut, srv.URL+"/orders/"+order.ID+"/approve")
	assert.Equal(t, http.StatusConflict, again.StatusCode)
	assert.Equal(t, "invalid_state", errResp.Error)
}

func TestCancelOrder(t *testing.T) {
	srv := newServer(t)
	order := createOrder(t, srv)

	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(createBody))
	require.NoError(t, err)
	resp.Body.Close()

	cancel, _ := do(t, http.MethodPut, srv.URL+"/orders/"+order.ID+"/cancel")
	require.Equal(t, http.StatusOK, cancel.StatusCode)

	get, err := http.Get(srv.URL + "/orders/customer/customer-123")
	require.NoError(t, err)
	defer get.Body.Close()
	var orders []httpx.OrderResponse
	require.NoError(t, json.NewDecoder(get.Body).Decode(&orders))
	assert.Len(t, orders, 2)
}
