package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/order-choreography/internal/contracts"
)

// TopicFor maps an event discriminator to its Kafka topic. One topic per
// event type keeps consumer groups independent per transition.
func TopicFor(kind string) string {
	switch kind {
	case contracts.KindOrderCreated:
		return "order-created"
	case contracts.KindStockReserved:
		return "stock-reserved"
	case contracts.KindStockReservationFailed:
		return "stock-reservation-failed"
	case contracts.KindPaymentProcessed:
		return "payment-processed"
	case contracts.KindOrderConfirmed:
		return "order-confirmed"
	case contracts.KindOrderCancelled:
		return "order-cancelled"
	default:
		return strings.ToLower(kind)
	}
}

// Kafka is the production Bus. Messages are keyed by order id so events for
// one order stay on one partition; trace context travels in message headers.
//
// Offsets are committed only after the handler returns nil. A failing
// handler leaves the offset uncommitted, so the group redelivers the message
// — the bus owns retries, handlers do not.
type Kafka struct {
	brokers []string
	groupID string

	mu       sync.Mutex
	writers  map[string]*kafka.Writer
	handlers map[string][]Handler
	readers  []*kafka.Reader
}

var _ Bus = (*Kafka)(nil)

func NewKafka(brokers []string, groupID string) *Kafka {
	return &Kafka{
		brokers:  brokers,
		groupID:  groupID,
		writers:  make(map[string]*kafka.Writer),
		handlers: make(map[string][]Handler),
	}
}

func (k *Kafka) writer(topic string) *kafka.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()
	w, ok := k.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:                   kafka.TCP(k.brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
		k.writers[topic] = w
	}
	return w
}

func (k *Kafka) Publish(ctx context.Context, e contracts.Event) error {
	data, err := contracts.Encode(e)
	if err != nil {
		return err
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier))
	for key, value := range carrier {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}

	msg := kafka.Message{
		Key:     []byte(e.Key()),
		Value:   data,
		Headers: headers,
	}
	if err := k.writer(TopicFor(e.Kind())).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("eventbus: publish %s for order %s: %w", e.Kind(), e.Key(), err)
	}
	return nil
}

func (k *Kafka) Subscribe(kind string, h Handler) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.handlers[kind] = append(k.handlers[kind], h)
}

// Run starts one consume loop per subscribed event type and blocks until the
// context is cancelled.
func (k *Kafka) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	k.mu.Lock()
	for kind, hs := range k.handlers {
		kind, hs := kind, hs
		r := kafka.NewReader(kafka.ReaderConfig{
			Brokers: k.brokers,
			GroupID: k.groupID,
			Topic:   TopicFor(kind),
		})
		k.readers = append(k.readers, r)
		g.Go(func() error { return k.consume(ctx, r, kind, hs) })
	}
	k.mu.Unlock()

	return g.Wait()
}

func (k *Kafka) consume(ctx context.Context, r *kafka.Reader, kind string, hs []Handler) error {
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			slog.ErrorContext(ctx, "fetch failed", "topic", r.Config().Topic, "error", err)
			continue
		}

		msgCtx := extractTraceContext(ctx, msg.Headers)

		e, err := contracts.Decode(msg.Value)
		if err != nil {
			// Poison message: log it and move past, there is no DLQ here.
			slog.ErrorContext(msgCtx, "undecodable event", "topic", r.Config().Topic, "error", err)
			if err := r.CommitMessages(ctx, msg); err != nil {
				slog.ErrorContext(msgCtx, "commit failed", "topic", r.Config().Topic, "error", err)
			}
			continue
		}

		failed := false
		for _, h := range hs {
			if err := h(msgCtx, e); err != nil {
				slog.ErrorContext(msgCtx, "event handler failed, leaving offset uncommitted",
					"event_type", kind, "order_id", e.Key(), "error", err)
				failed = true
				break
			}
		}
		if failed {
			continue
		}

		if err := r.CommitMessages(ctx, msg); err != nil {
			slog.ErrorContext(msgCtx, "commit failed", "topic", r.Config().Topic, "error", err)
		}
	}
}

func extractTraceContext(ctx context.Context, headers []kafka.Header) context.Context {
	carrier := propagation.MapCarrier{}
	for _, h := range headers {
		carrier[h.Key] = string(h.Value)
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var firstErr error
	for _, w := range k.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, r := range k.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
