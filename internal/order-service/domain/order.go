// Package domain holds the Order aggregate. Its invariants are enforced only
// through the aggregate's own methods; persistence and transport layers keep
// their hands off the status field except through SetStatus during
// rehydration.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/order-choreography/internal/pkg/apperr"
)

// Status is the order lifecycle state, stored under its textual name.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusConfirmed  Status = "Confirmed"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// ParseStatus maps a textual status back to its enum value,
// case-insensitively.
func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusCompleted, StatusCancelled} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", &apperr.ValidationError{Field: "status", Reason: "unknown status " + s}
}

// Line is one ordered product. Owned exclusively by its Order.
type Line struct {
	ID          string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   float64
}

// Subtotal is quantity times unit price.
func (l Line) Subtotal() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// Order is the aggregate root for one customer order.
type Order struct {
	ID         string
	CustomerID string
	Status     Status
	Lines      []Line
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New creates a Pending order with no lines yet.
func New(customerID string) (*Order, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, &apperr.ValidationError{Field: "customer_id", Reason: "must not be empty"}
	}
	now := time.Now().UTC()
	return &Order{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// AddLine appends a line, merging into an existing line for the same product
// by summing quantities. The merged line keeps its original unit price; a
// differing price on the later add is discarded.
func (o *Order) AddLine(productID, productName string, quantity int, unitPrice float64) error {
	if strings.TrimSpace(productID) == "" {
		return &apperr.ValidationError{Field: "product_id", Reason: "must not be empty"}
	}
	if quantity <= 0 {
		return &apperr.ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	if unitPrice < 0 {
		return &apperr.ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}

	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			o.Lines[i].Quantity += quantity
			o.UpdatedAt = time.Now().UTC()
			return nil
		}
	}

	o.Lines = append(o.Lines, Line{
		ID:          uuid.NewString(),
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	})
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// TotalAmount is always recomputed from the lines, never stored.
func (o *Order) TotalAmount() float64 {
	var total float64
	for _, l := range o.Lines {
		total += l.Subtotal()
	}
	return total
}

// Confirm moves a Pending order to Confirmed.
func (o *Order) Confirm() error {
	if o.Status != StatusPending {
		return &apperr.InvalidStateError{Entity: "order", Op: "confirm", State: string(o.Status)}
	}
	o.Status = StatusConfirmed
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel moves the order to Cancelled from any non-terminal state. The
// reason is not stored on the aggregate; it travels only on the emitted
// OrderCancelled event.
func (o *Order) Cancel(reason string) error {
	_ = reason
	if o.Status == StatusCompleted || o.Status == StatusCancelled {
		return &apperr.InvalidStateError{Entity: "order", Op: "cancel", State: string(o.Status)}
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// SetStatus is an unconditional override that bypasses the transition table.
// Reserved for persistence rehydration and tests; business code goes through
// Confirm and Cancel.
func (o *Order) SetStatus(s Status) {
	o.Status = s
	o.UpdatedAt = time.Now().UTC()
}
