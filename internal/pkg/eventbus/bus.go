// Package eventbus is the publish/subscribe transport between the services.
//
// Delivery is at-least-once: a handler may see the same event more than once
// and must not assume ordering across different orders. A handler error is
// propagated back to the transport so its own redelivery policy applies —
// handlers never run their own retry loops.
package eventbus

import (
	"context"

	"github.com/jcmexdev/order-choreography/internal/contracts"
)

// Handler processes one decoded event. Returning an error signals the
// transport to redeliver; returning nil acknowledges the event.
type Handler func(ctx context.Context, e contracts.Event) error

// Publisher is the outbound half of the bus.
type Publisher interface {
	Publish(ctx context.Context, e contracts.Event) error
}

// Bus is a full publish/subscribe endpoint. Subscribe must be called before
// Run; Run blocks delivering events until the context is cancelled.
type Bus interface {
	Publisher
	Subscribe(kind string, h Handler)
	Run(ctx context.Context) error
	Close() error
}
