// Package contracts defines the integration events exchanged between the
// order, inventory, payment and notification services. Events are the only
// channel of information flow between services — there is no shared database.
//
// Every event carries an EventMeta header with a stable event_type
// discriminator so consumers can dispatch without knowing the producer's
// concrete types. Decode returns the matching variant as a contracts.Event.
package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Wire names of the event variants. These are the discriminator values
// written into the event_type field and used for topic routing.
const (
	KindOrderCreated           = "OrderCreatedEvent"
	KindStockReserved          = "StockReservedEvent"
	KindStockReservationFailed = "StockReservationFailedEvent"
	KindPaymentProcessed       = "PaymentProcessedEvent"
	KindOrderConfirmed         = "OrderConfirmedEvent"
	KindOrderCancelled         = "OrderCancelledEvent"
)

// Kinds lists every event variant, in choreography order.
func Kinds() []string {
	return []string{
		KindOrderCreated,
		KindStockReserved,
		KindStockReservationFailed,
		KindPaymentProcessed,
		KindOrderConfirmed,
		KindOrderCancelled,
	}
}

// EventMeta is the header shared by all integration events.
type EventMeta struct {
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
	EventType string    `json:"event_type"`
}

func (m *EventMeta) metaRef() *EventMeta { return m }

// stamp fills in the header just before publishing. Already-set fields are
// kept so re-publishing an event does not mint a new identity.
func (m *EventMeta) stamp(kind string) {
	if m.EventID == "" {
		m.EventID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.EventType = kind
}

// Event is the closed sum of the six integration event variants.
// The unexported metaRef method keeps the set closed to this package.
type Event interface {
	// Kind returns the wire discriminator of the variant.
	Kind() string
	// Key returns the partition/ordering key — always the order id.
	Key() string
	metaRef() *EventMeta
}

// LineSnapshot is the denormalized order line carried on OrderCreated.
// It is a snapshot taken at creation time and never re-validated.
type LineSnapshot struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// OrderCreated is published by the order service after an order is persisted.
type OrderCreated struct {
	EventMeta
	OrderID     string         `json:"order_id"`
	CustomerID  string         `json:"customer_id"`
	TotalAmount float64        `json:"total_amount"`
	Lines       []LineSnapshot `json:"lines"`
	OrderedAt   time.Time      `json:"ordered_at"`
}

func (e *OrderCreated) Kind() string { return KindOrderCreated }
func (e *OrderCreated) Key() string  { return e.OrderID }

// StockReserved is published by the inventory service when every line of an
// order could be reserved.
type StockReserved struct {
	EventMeta
	OrderID     string  `json:"order_id"`
	CustomerID  string  `json:"customer_id"`
	TotalAmount float64 `json:"total_amount"`
	IsReserved  bool    `json:"is_reserved"`
}

func (e *StockReserved) Kind() string { return KindStockReserved }
func (e *StockReserved) Key() string  { return e.OrderID }

// StockReservationFailed is published when at least one line could not be
// reserved. Reason names the first product that failed.
type StockReservationFailed struct {
	EventMeta
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func (e *StockReservationFailed) Kind() string { return KindStockReservationFailed }
func (e *StockReservationFailed) Key() string  { return e.OrderID }

// PaymentProcessed records the outcome of a simulated payment attempt.
// It is an audit signal only: no consumer mutates order status from it.
type PaymentProcessed struct {
	EventMeta
	OrderID       string    `json:"order_id"`
	PaymentID     string    `json:"payment_id"`
	IsSuccess     bool      `json:"is_success"`
	Amount        float64   `json:"amount"`
	FailureReason string    `json:"failure_reason,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}

func (e *PaymentProcessed) Kind() string { return KindPaymentProcessed }
func (e *PaymentProcessed) Key() string  { return e.OrderID }

// OrderConfirmed is published by the admin approve transition.
type OrderConfirmed struct {
	EventMeta
	OrderID     string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

func (e *OrderConfirmed) Kind() string { return KindOrderConfirmed }
func (e *OrderConfirmed) Key() string  { return e.OrderID }

// OrderCancelled is published by the admin cancel transition. The reason
// lives only here, never on the order aggregate.
type OrderCancelled struct {
	EventMeta
	OrderID     string    `json:"order_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

func (e *OrderCancelled) Kind() string { return KindOrderCancelled }
func (e *OrderCancelled) Key() string  { return e.OrderID }

// Encode stamps the event header and serializes the event for the wire.
func Encode(e Event) ([]byte, error) {
	e.metaRef().stamp(e.Kind())
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("contracts: encode %s: %w", e.Kind(), err)
	}
	return data, nil
}

// Decode reads the event_type discriminator and unmarshals the payload into
// the matching variant. Unknown discriminators are an error so that a
// consumer never silently drops a malformed message.
func Decode(data []byte) (Event, error) {
	var probe struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("contracts: decode header: %w", err)
	}

	var e Event
	switch probe.EventType {
	case KindOrderCreated:
		e = &OrderCreated{}
	case KindStockReserved:
		e = &StockReserved{}
	case KindStockReservationFailed:
		e = &StockReservationFailed{}
	case KindPaymentProcessed:
		e = &PaymentProcessed{}
	case KindOrderConfirmed:
		e = &OrderConfirmed{}
	case KindOrderCancelled:
		e = &OrderCancelled{}
	default:
		return nil, fmt.Errorf("contracts: unknown event type %q", probe.EventType)
	}

	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("contracts: decode %s: %w", probe.EventType, err)
	}
	return e, nil
}
