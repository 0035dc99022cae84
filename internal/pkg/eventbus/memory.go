package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jcmexdev/order-choreography/internal/contracts"
)

// Memory is an in-process Bus used by tests and single-binary runs. Events
// are round-tripped through the wire codec so that subscribers see exactly
// what a remote consumer would, then dispatched synchronously on the
// publisher's goroutine.
//
// Handler errors are logged, not returned to the publisher: publish is
// fire-and-forget, matching the delivery contract of the real transport.
type Memory struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

var _ Bus = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{handlers: make(map[string][]Handler)}
}

func (m *Memory) Subscribe(kind string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[kind] = append(m.handlers[kind], h)
}

func (m *Memory) Publish(ctx context.Context, e contracts.Event) error {
	data, err := contracts.Encode(e)
	if err != nil {
		return err
	}
	decoded, err := contracts.Decode(data)
	if err != nil {
		return err
	}

	m.mu.RLock()
	hs := m.handlers[decoded.Kind()]
	m.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, decoded); err != nil {
			slog.ErrorContext(ctx, "event handler failed",
				"event_type", decoded.Kind(), "order_id", decoded.Key(), "error", err)
		}
	}
	return nil
}

// Run blocks until the context is cancelled. Dispatch happens inline in
// Publish, so there is nothing to pump here; the method exists so Memory and
// Kafka are interchangeable in service mains.
func (m *Memory) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (m *Memory) Close() error { return nil }
