// Package store defines the persistence contract for the Order aggregate.
// The whole aggregate is the unit of persistence: Update replaces the order
// row and all of its lines, there are no partial updates.
package store

import (
	"context"

	"github.com/jcmexdev/order-choreography/internal/order-service/domain"
)

// Store is implemented by the sqlite backend and by in-memory fakes in tests.
//
// GetByID returns *apperr.NotFoundError when the order is absent. Backend
// failures surface as *apperr.PersistenceError.
type Store interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)
	GetByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
}
