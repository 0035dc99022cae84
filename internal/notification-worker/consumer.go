// Package notificationworker listens to every integration event and turns it
// into a human-readable notification line, forwarded best-effort to the
// monitoring sink. It never publishes and never mutates state.
package notificationworker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/order-choreography/internal/contracts"
	"github.com/jcmexdev/order-choreography/internal/pkg/eventbus"
	"github.com/jcmexdev/order-choreography/internal/pkg/monitor"
)

// Consumer fans in all six event types.
type Consumer struct {
	monitor *monitor.Client
}

func NewConsumer(m *monitor.Client) *Consumer {
	return &Consumer{monitor: m}
}

// Register subscribes the consumer to every event kind on the bus.
func (c *Consumer) Register(bus eventbus.Bus) {
	for _, kind := range contracts.Kinds() {
		bus.Subscribe(kind, c.HandleEvent)
	}
}

// HandleEvent logs the notification and forwards it to the monitor.
// It never fails: a notification is not worth a redelivery.
func (c *Consumer) HandleEvent(ctx context.Context, e contracts.Event) error {
	message := notificationMessage(e)
	slog.InfoContext(ctx, "notification sent",
		"event_type", e.Kind(), "order_id", e.Key(), "message", message)

	c.monitor.Notify(ctx, "notification-worker",
		fmt.Sprintf("Notification sent for %s: %s", e.Kind(), message), "info")
	return nil
}

func notificationMessage(e contracts.Event) string {
	switch evt := e.(type) {
	case *contracts.OrderCreated:
		return fmt.Sprintf("Your order %s has been received (total %.2f)", evt.OrderID, evt.TotalAmount)
	case *contracts.StockReserved:
		return fmt.Sprintf("Stock reserved for order %s", evt.OrderID)
	case *contracts.StockReservationFailed:
		return fmt.Sprintf("Order %s could not be fulfilled: %s", evt.OrderID, evt.Reason)
	case *contracts.PaymentProcessed:
		if evt.IsSuccess {
			return fmt.Sprintf("Payment of %.2f for order %s succeeded", evt.Amount, evt.OrderID)
		}
		return fmt.Sprintf("Payment for order %s failed: %s", evt.OrderID, evt.FailureReason)
	case *contracts.OrderConfirmed:
		return fmt.Sprintf("Your order %s has been confirmed", evt.OrderID)
	case *contracts.OrderCancelled:
		return fmt.Sprintf("Your order %s was cancelled: %s", evt.OrderID, evt.Reason)
	default:
		return fmt.Sprintf("Event %s for order %s", e.Kind(), e.Key())
	}
}
