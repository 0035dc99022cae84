// Package cache is the cache-aside layer in front of the order store for
// point lookups. Entries carry a 30-minute absolute expiry and are written on
// create and on read-miss.
//
// Admin transitions do not invalidate entries, so a point lookup may serve a
// stale status for up to the TTL after an approve or cancel.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jcmexdev/order-choreography/internal/order-service/domain"
	"github.com/jcmexdev/order-choreography/internal/order-service/store"
	pkgcache "github.com/jcmexdev/order-choreography/internal/pkg/cache"
)

// TTL is the absolute expiry of a cached order.
const TTL = 30 * time.Minute

const operation = "order"

// snapshot is the serialized form of an order in the cache.
type snapshot struct {
	ID         string         `json:"id"`
	CustomerID string         `json:"customer_id"`
	Status     string         `json:"status"`
	Lines      []lineSnapshot `json:"lines"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type lineSnapshot struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// ReadThrough serves point lookups cache-first, falling back to the store
// and repopulating the cache on a miss.
type ReadThrough struct {
	store store.Store
	cache pkgcache.Cache
}

func NewReadThrough(s store.Store, c pkgcache.Cache) *ReadThrough {
	return &ReadThrough{store: s, cache: c}
}

// Get returns the order from cache when present, otherwise loads it from the
// store and populates the cache. Absent in both reports not-found from the
// store.
func (r *ReadThrough) Get(ctx context.Context, id string) (*domain.Order, error) {
	key := r.cache.GenerateKey(operation, id)

	if raw, err := r.cache.Get(ctx, key); err == nil && raw != "" {
		o, err := decode(raw)
		if err == nil {
			return o, nil
		}
		slog.WarnContext(ctx, "discarding undecodable cache entry", "order_id", id, "error", err)
	} else if err != nil {
		slog.WarnContext(ctx, "cache read failed, falling back to store", "order_id", id, "error", err)
	}

	o, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.Put(ctx, o)
	return o, nil
}

// Put caches the order. Cache failures are logged, never returned: the store
// remains the source of truth.
func (r *ReadThrough) Put(ctx context.Context, o *domain.Order) {
	raw, err := encode(o)
	if err != nil {
		slog.WarnContext(ctx, "failed to serialize order for cache", "order_id", o.ID, "error", err)
		return
	}
	key := r.cache.GenerateKey(operation, o.ID)
	if err := r.cache.Set(ctx, key, raw, TTL); err != nil {
		slog.WarnContext(ctx, "failed to cache order", "order_id", o.ID, "error", err)
	}
}

func encode(o *domain.Order) (string, error) {
	snap := snapshot{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for _, l := range o.Lines {
		snap.Lines = append(snap.Lines, lineSnapshot{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decode(raw string) (*domain.Order, error) {
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(snap.Status)
	if err != nil {
		return nil, err
	}

	o := &domain.Order{
		ID:         snap.ID,
		CustomerID: snap.CustomerID,
		CreatedAt:  snap.CreatedAt,
		UpdatedAt:  snap.UpdatedAt,
	}
	for _, l := range snap.Lines {
		o.Lines = append(o.Lines, domain.Line{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	o.SetStatus(status)
	o.UpdatedAt = snap.UpdatedAt
	return o, nil
}
