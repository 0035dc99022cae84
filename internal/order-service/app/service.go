// Package app wires the order workflows: command side (create, approve,
// cancel) and query side (point lookup through the cache, list queries
// straight from the store).
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/order-choreography/internal/contracts"
	"github.com/jcmexdev/order-choreography/internal/order-service/cache"
	"github.com/jcmexdev/order-choreography/internal/order-service/domain"
	"github.com/jcmexdev/order-choreography/internal/order-service/store"
	"github.com/jcmexdev/order-choreography/internal/pkg/apperr"
	"github.com/jcmexdev/order-choreography/internal/pkg/eventbus"
)

// LineRequest is one requested order line as submitted by the client.
type LineRequest struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   float64
}

// StockChecker is the synchronous stock query consumed by the create-order
// pre-check. Implemented by the inventory HTTP client.
type StockChecker interface {
	ProductStock(ctx context.Context, productID string) (*ProductStock, error)
}

// ProductStock is the stock snapshot returned by a StockChecker.
type ProductStock struct {
	ProductID   string
	ProductName string
	Available   int
	Reserved    int
}

// Notifier delivers best-effort activity lines to the monitoring sink.
type Notifier interface {
	Notify(ctx context.Context, source, message, typ string)
}

// Service owns the order workflows. All state it mutates is injected.
type Service struct {
	store   store.Store
	cache   *cache.ReadThrough
	bus     eventbus.Publisher
	stock   StockChecker
	monitor Notifier
}

func NewService(s store.Store, c *cache.ReadThrough, bus eventbus.Publisher, stock StockChecker, monitor Notifier) *Service {
	return &Service{store: s, cache: c, bus: bus, stock: stock, monitor: monitor}
}

// CreateOrder validates stock synchronously, persists the order, warms the
// cache and publishes OrderCreated.
//
// The stock pre-check is advisory: it does not reserve anything, so two
// concurrent orders can both pass it and race at the reservation consumer.
// That race is resolved there, where Reserve is atomic per product.
func (s *Service) CreateOrder(ctx context.Context, customerID string, lines []LineRequest) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, &apperr.ValidationError{Field: "lines", Reason: "at least one line is required"}
	}

	for _, l := range lines {
		ps, err := s.stock.ProductStock(ctx, l.ProductID)
		if err != nil {
			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				// Unknown products pass the pre-check and fail later at the
				// reservation consumer, matching the advisory contract.
				continue
			}
			return nil, fmt.Errorf("cannot verify stock for %s: %w", l.ProductID, err)
		}
		if ps.Available < l.Quantity {
			return nil, &apperr.InsufficientStockError{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Available:   ps.Available,
				Requested:   l.Quantity,
			}
		}
	}

	order, err := domain.New(customerID)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if err := order.AddLine(l.ProductID, l.ProductName, l.Quantity, l.UnitPrice); err != nil {
			return nil, err
		}
	}

	if err := s.store.Create(ctx, order); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order created", "order_id", order.ID, "customer_id", customerID, "total", order.TotalAmount())

	s.cache.Put(ctx, order)

	evt := &contracts.OrderCreated{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount(),
		Lines:       lineSnapshots(order),
		OrderedAt:   order.CreatedAt,
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		return nil, err
	}

	// Detached so a slow monitor endpoint never blocks the response.
	go s.monitor.Notify(context.WithoutCancel(ctx), "order-service",
		fmt.Sprintf("Order %s created", order.ID), "success")

	return order, nil
}

// GetOrder serves the point lookup through the read-through cache.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.cache.Get(ctx, id)
}

// ListByCustomer returns the customer's orders, newest first. List queries
// bypass the cache.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return s.store.GetByCustomer(ctx, customerID)
}

// ListByStatus returns orders in the given status, newest first.
func (s *Service) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	return s.store.GetByStatus(ctx, status)
}

// Approve confirms a pending order and publishes OrderConfirmed. The
// transition is fully manual and independent of the payment outcome.
func (s *Service) Approve(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Confirm(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, order); err != nil {
		return nil, err
	}

	evt := &contracts.OrderConfirmed{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		ConfirmedAt: order.UpdatedAt,
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order confirmed", "order_id", order.ID)
	return order, nil
}

// Cancel cancels an order and publishes OrderCancelled carrying the reason.
func (s *Service) Cancel(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	if reason == "" {
		reason = "cancelled by administrator"
	}

	order, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, order); err != nil {
		return nil, err
	}

	evt := &contracts.OrderCancelled{
		OrderID:     order.ID,
		Reason:      reason,
		CancelledAt: order.UpdatedAt,
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order cancelled", "order_id", order.ID, "reason", reason)
	return order, nil
}

func lineSnapshots(o *domain.Order) []contracts.LineSnapshot {
	out := make([]contracts.LineSnapshot, len(o.Lines))
	for i, l := range o.Lines {
		out[i] = contracts.LineSnapshot{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}
	return out
}
