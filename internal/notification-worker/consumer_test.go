package notificationworker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/order-choreography/internal/contracts"
	"github.com/jcmexdev/order-choreography/internal/pkg/eventbus"
	"github.com/jcmexdev/order-choreography/internal/pkg/monitor"
)

type sinkPayload struct {
	Source  string `json:"source"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// monitorSink captures what the worker forwards to the monitor endpoint.
type monitorSink struct {
	mu       sync.Mutex
	payloads []sinkPayload
}

func (s *monitorSink) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p sinkPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		s.mu.Lock()
		s.payloads = append(s.payloads, p)
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func (s *monitorSink) all() []sinkPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkPayload(nil), s.payloads...)
}

func TestHandleEvent_ForwardsToMonitor(t *testing.T) {
	sink := &monitorSink{}
	srv := httptest.NewServer(sink.handler())
	defer srv.Close()

	consumer := NewConsumer(monitor.NewClient(srv.URL))

	err := consumer.HandleEvent(context.Background(), &contracts.OrderCreated{
		OrderID:     "order-1",
		CustomerID:  "customer-123",
		TotalAmount: 3150.00,
	})
	require.NoError(t, err)

	payloads := sink.all()
	require.Len(t, payloads, 1)
	assert.Equal(t, "notification-worker", payloads[0].Source)
	assert.Equal(t, "info", payloads[0].Type)
	assert.Contains(t, payloads[0].Message, "order-1")
}

// A dead monitor endpoint must never surface as a handler error, otherwise
// the bus would redeliver forever.
func TestHandleEvent_NeverFails(t *testing.T) {
	consumer := NewConsumer(monitor.NewClient("http://127.0.0.1:1"))

	err := consumer.HandleEvent(context.Background(), &contracts.OrderCancelled{
		OrderID: "order-1",
		Reason:  "cancelled by administrator",
	})
	assert.NoError(t, err)
}

func TestRegister_SubscribesToEveryKind(t *testing.T) {
	bus := eventbus.NewMemory()
	sink := &monitorSink{}
	srv := httptest.NewServer(sink.handler())
	defer srv.Close()

	NewConsumer(monitor.NewClient(srv.URL)).Register(bus)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, &contracts.StockReserved{OrderID: "order-1", IsReserved: true}))
	require.NoError(t, bus.Publish(ctx, &contracts.PaymentProcessed{OrderID: "order-1", IsSuccess: true, Amount: 3150.00}))

	assert.Len(t, sink.all(), 2)
}

func TestNotificationMessage_PerVariant(t *testing.T) {
	tests := []struct {
		name  string
		event contracts.Event
		want  string
	}{
		{
			name:  "created",
			event: &contracts.OrderCreated{OrderID: "order-1", TotalAmount: 3150.00},
			want:  "Your order order-1 has been received (total 3150.00)",
		},
		{
			name:  "reservation failed",
			event: &contracts.StockReservationFailed{OrderID: "order-1", Reason: "insufficient stock for product Laptop"},
			want:  "Order order-1 could not be fulfilled: insufficient stock for product Laptop",
		},
		{
			name:  "payment declined",
			event: &contracts.PaymentProcessed{OrderID: "order-1", FailureReason: "insufficient funds or card declined (simulated)"},
			want:  "Payment for order order-1 failed: insufficient funds or card declined (simulated)",
		},
		{
			name:  "confirmed",
			event: &contracts.OrderConfirmed{OrderID: "order-1"},
			want:  "Your order order-1 has been confirmed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notificationMessage(tt.event))
		})
	}
}
