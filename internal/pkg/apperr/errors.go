// Package apperr holds the error taxonomy shared by the services. Transport
// layers match on these with errors.As to choose a status code; everything
// else is treated as a system failure.
package apperr

import "fmt"

// ValidationError rejects bad input before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidStateError rejects an illegal state transition without mutating
// the entity.
type InvalidStateError struct {
	Entity string
	Op     string
	State  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in %s state", e.Op, e.Entity, e.State)
}

// NotFoundError reports a missing order, product or payment.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InsufficientStockError aborts order creation; no order is persisted.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		name, e.Available, e.Requested)
}

// PersistenceError wraps a storage backend failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
