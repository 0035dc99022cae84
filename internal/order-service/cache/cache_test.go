package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/order-choreography/internal/order-service/domain"
	"github.com/jcmexdev/order-choreography/internal/pkg/apperr"
)

// fakeKV is an in-memory stand-in for the Redis cache.
type fakeKV struct {
	entries map[string]string
	sets    int
	failing bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{entries: make(map[string]string)}
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	if f.failing {
		return errors.New("cache down")
	}
	f.entries[key] = value
	f.sets++
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.failing {
		return "", errors.New("cache down")
	}
	return f.entries[key], nil
}

func (f *fakeKV) GenerateKey(operation, key string) string {
	return fmt.Sprintf("order:%s:%s", operation, key)
}

// fakeStore counts loads so tests can tell hits from misses.
type fakeStore struct {
	orders map[string]*domain.Order
	loads  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[string]*domain.Order)}
}

func (f *fakeStore) Create(_ context.Context, o *domain.Order) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	f.loads++
	o, ok := f.orders[id]
	if !ok {
		return nil, &apperr.NotFoundError{Entity: "order", ID: id}
	}
	return o, nil
}

func (f *fakeStore) GetByCustomer(context.Context, string) ([]*domain.Order, error) { return nil, nil }
func (f *fakeStore) GetByStatus(context.Context, domain.Status) ([]*domain.Order, error) {
	return nil, nil
}
func (f *fakeStore) Update(_ context.Context, o *domain.Order) error {
	f.orders[o.ID] = o
	return nil
}

func seedOrder(t *testing.T) *domain.Order {
	t.Helper()
	o, err := domain.New("customer-123")
	require.NoError(t, err)
	require.NoError(t, o.AddLine("product-1", "Laptop", 2, 1500.00))
	return o
}

func TestGet_MissPopulatesCache(t *testing.T) {
	kv := newFakeKV()
	store := newFakeStore()
	rt := NewReadThrough(store, kv)
	ctx := context.Background()

	o := seedOrder(t)
	require.NoError(t, store.Create(ctx, o))

	got, err := rt.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, 1, store.loads)
	assert.Equal(t, 1, kv.sets, "miss populates the cache")

	// Second read is served from cache, the store is not touched again.
	got, err = rt.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.InDelta(t, 3000.00, got.TotalAmount(), 1e-9)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, 1, store.loads)
}

func TestGet_AbsentEverywhere(t *testing.T) {
	rt := NewReadThrough(newFakeStore(), newFakeKV())

	_, err := rt.Get(context.Background(), "no-such-order")
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestPut_ThenGetSkipsStore(t *testing.T) {
	kv := newFakeKV()
	store := newFakeStore()
	rt := NewReadThrough(store, kv)
	ctx := context.Background()

	o := seedOrder(t)
	rt.Put(ctx, o)

	got, err := rt.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Zero(t, store.loads)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Laptop", got.Lines[0].ProductName)
}

func TestGet_CacheFailureFallsBackToStore(t *testing.T) {
	kv := newFakeKV()
	kv.failing = true
	store := newFakeStore()
	rt := NewReadThrough(store, kv)
	ctx := context.Background()

	o := seedOrder(t)
	require.NoError(t, store.Create(ctx, o))

	got, err := rt.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, 1, store.loads)
}

// Admin transitions do not invalidate the cache: a stale status is served
// until the TTL expires. This pins the documented trade-off.
func TestGet_ServesStaleStatusAfterUpdate(t *testing.T) {
	kv := newFakeKV()
	store := newFakeStore()
	rt := NewReadThrough(store, kv)
	ctx := context.Background()

	o := seedOrder(t)
	require.NoError(t, store.Create(ctx, o))
	rt.Put(ctx, o)

	require.NoError(t, o.Confirm())
	require.NoError(t, store.Update(ctx, o))

	got, err := rt.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}
