// Package inventoryservice holds the in-memory stock ledger and the
// OrderCreated consumer that mutates it.
package inventoryservice

import (
	"sort"
	"sync"

	"github.com/jcmexdev/order-choreography/internal/pkg/apperr"
)

// Record is an immutable snapshot of one product's stock split.
type Record struct {
	ProductID   string
	ProductName string
	Available   int
	Reserved    int
}

// item is the mutable ledger entry. Each item carries its own lock, so
// reservations for different products never contend with each other.
type item struct {
	mu          sync.Mutex
	productName string
	available   int
	reserved    int
}

// Ledger is the concurrency-safe stock store. The product set is seeded once
// at construction and never changes afterwards, which is what makes the
// lock-per-product scheme safe: the map itself is only ever read.
type Ledger struct {
	items map[string]*item
}

// DefaultCatalog is the fixed seed used at process start.
func DefaultCatalog() []Record {
	return []Record{
		{ProductID: "product-1", ProductName: "Laptop", Available: 100},
		{ProductID: "product-2", ProductName: "Mouse", Available: 500},
		{ProductID: "product-3", ProductName: "Keyboard", Available: 300},
	}
}

// NewLedger seeds the ledger. Duplicate product ids keep the first record.
func NewLedger(seed []Record) *Ledger {
	items := make(map[string]*item, len(seed))
	for _, r := range seed {
		if _, ok := items[r.ProductID]; ok {
			continue
		}
		items[r.ProductID] = &item{
			productName: r.ProductName,
			available:   r.Available,
			reserved:    r.Reserved,
		}
	}
	return &Ledger{items: items}
}

// Get returns the current stock split for a product.
func (l *Ledger) Get(productID string) (Record, bool) {
	it, ok := l.items[productID]
	if !ok {
		return Record{}, false
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	return Record{
		ProductID:   productID,
		ProductName: it.productName,
		Available:   it.available,
		Reserved:    it.reserved,
	}, true
}

// All returns every record, sorted by product id.
func (l *Ledger) All() []Record {
	out := make([]Record, 0, len(l.items))
	for id := range l.items {
		if r, ok := l.Get(id); ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Reserve atomically moves quantity units from available to reserved.
// It returns false — never an error — when the product is unknown or the
// available stock is insufficient; the caller decides the consequence.
func (l *Ledger) Reserve(productID string, quantity int) bool {
	if quantity <= 0 {
		return false
	}
	it, ok := l.items[productID]
	if !ok {
		return false
	}

	it.mu.Lock()
	defer it.mu.Unlock()
	if it.available < quantity {
		return false
	}
	it.available -= quantity
	it.reserved += quantity
	return true
}

// Release is the inverse of Reserve. Releasing more than is currently
// reserved fails without mutating state.
func (l *Ledger) Release(productID string, quantity int) error {
	if quantity <= 0 {
		return &apperr.ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	it, ok := l.items[productID]
	if !ok {
		return &apperr.NotFoundError{Entity: "product", ID: productID}
	}

	it.mu.Lock()
	defer it.mu.Unlock()
	if it.reserved < quantity {
		return &apperr.InvalidStateError{Entity: "product " + productID, Op: "release reservation for", State: "under-reserved"}
	}
	it.reserved -= quantity
	it.available += quantity
	return nil
}

// SetAvailable is the administrative override. It replaces available stock
// and leaves the reserved count untouched.
func (l *Ledger) SetAvailable(productID string, value int) error {
	if value < 0 {
		return &apperr.ValidationError{Field: "available_stock", Reason: "must not be negative"}
	}
	it, ok := l.items[productID]
	if !ok {
		return &apperr.NotFoundError{Entity: "product", ID: productID}
	}

	it.mu.Lock()
	defer it.mu.Unlock()
	it.available = value
	return nil
}
