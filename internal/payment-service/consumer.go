package paymentservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/order-choreography/internal/contracts"
	"github.com/jcmexdev/order-choreography/internal/pkg/eventbus"
)

// Consumer reacts to StockReserved events by running the simulated payment
// and publishing the outcome. PaymentProcessed is an audit signal: nothing
// downstream mutates order status from it, confirmation stays a manual
// admin action.
type Consumer struct {
	processor *Processor
	bus       eventbus.Publisher
}

func NewConsumer(processor *Processor, bus eventbus.Publisher) *Consumer {
	return &Consumer{processor: processor, bus: bus}
}

// HandleStockReserved charges the order amount. Events with is_reserved set
// to false are logged and ignored — no compensating action is taken here.
func (c *Consumer) HandleStockReserved(ctx context.Context, e contracts.Event) error {
	evt, ok := e.(*contracts.StockReserved)
	if !ok {
		return fmt.Errorf("payment: unexpected event %s", e.Kind())
	}

	if !evt.IsReserved {
		slog.WarnContext(ctx, "stock not reserved, skipping payment", "order_id", evt.OrderID)
		return nil
	}

	payment, err := c.processor.Process(ctx, evt.OrderID, evt.TotalAmount)
	if err != nil {
		return fmt.Errorf("payment: process order %s: %w", evt.OrderID, err)
	}

	return c.bus.Publish(ctx, &contracts.PaymentProcessed{
		OrderID:       payment.OrderID,
		PaymentID:     payment.PaymentID,
		IsSuccess:     payment.Status == PaymentSuccess,
		Amount:        payment.Amount,
		FailureReason: payment.FailureReason,
		ProcessedAt:   payment.ProcessedAt,
	})
}
