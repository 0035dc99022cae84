package inventoryservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/order-choreography/internal/contracts"
	"github.com/jcmexdev/order-choreography/internal/pkg/eventbus"
)

// Consumer reacts to OrderCreated events by reserving stock line by line and
// publishing the reservation outcome.
type Consumer struct {
	ledger *Ledger
	bus    eventbus.Publisher
}

func NewConsumer(ledger *Ledger, bus eventbus.Publisher) *Consumer {
	return &Consumer{ledger: ledger, bus: bus}
}

// HandleOrderCreated reserves every line of the order. Processing
// short-circuits at the first line that cannot be reserved; lines already
// reserved in this pass are left in place (see the partial-reservation note
// in DESIGN.md). Publish failures propagate so the bus redelivers.
func (c *Consumer) HandleOrderCreated(ctx context.Context, e contracts.Event) error {
	evt, ok := e.(*contracts.OrderCreated)
	if !ok {
		return fmt.Errorf("inventory: unexpected event %s", e.Kind())
	}

	slog.InfoContext(ctx, "processing order for reservation", "order_id", evt.OrderID)

	for _, line := range evt.Lines {
		if c.ledger.Reserve(line.ProductID, line.Quantity) {
			continue
		}

		reason := fmt.Sprintf("insufficient stock for product %s", line.ProductName)
		slog.WarnContext(ctx, "stock reservation failed",
			"order_id", evt.OrderID, "product_id", line.ProductID, "requested", line.Quantity)

		return c.bus.Publish(ctx, &contracts.StockReservationFailed{
			OrderID: evt.OrderID,
			Reason:  reason,
		})
	}

	slog.InfoContext(ctx, "stock reserved", "order_id", evt.OrderID)
	return c.bus.Publish(ctx, &contracts.StockReserved{
		OrderID:     evt.OrderID,
		CustomerID:  evt.CustomerID,
		TotalAmount: evt.TotalAmount,
		IsReserved:  true,
	})
}
