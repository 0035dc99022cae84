package paymentservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastProcessor(opts ...Option) *Processor {
	base := []Option{WithDelayRange(0, time.Millisecond)}
	return NewProcessor(append(base, opts...)...)
}

func TestProcess_Success(t *testing.T) {
	p := fastProcessor(WithSuccessRate(1))

	payment, err := p.Process(context.Background(), "order-1", 3150.00)
	require.NoError(t, err)

	assert.NotEmpty(t, payment.PaymentID)
	assert.Equal(t, "order-1", payment.OrderID)
	assert.InDelta(t, 3150.00, payment.Amount, 1e-9)
	assert.Equal(t, PaymentSuccess, payment.Status)
	assert.Empty(t, payment.FailureReason)
	assert.False(t, payment.ProcessedAt.IsZero())
}

func TestProcess_Failure(t *testing.T) {
	p := fastProcessor(WithSuccessRate(0))

	payment, err := p.Process(context.Background(), "order-1", 99.00)
	require.NoError(t, err)

	assert.Equal(t, PaymentFailed, payment.Status)
	assert.NotEmpty(t, payment.FailureReason)
}

func TestProcess_AppendOnlyByOrder(t *testing.T) {
	p := fastProcessor(WithSuccessRate(1))

	first, err := p.Process(context.Background(), "order-1", 10)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), "order-1", 10)
	require.NoError(t, err)

	attempts := p.ByOrder("order-1")
	require.Len(t, attempts, 2)
	assert.Equal(t, first.PaymentID, attempts[0].PaymentID)
	assert.Equal(t, second.PaymentID, attempts[1].PaymentID)
	assert.NotEqual(t, first.PaymentID, second.PaymentID)

	assert.Empty(t, p.ByOrder("order-2"))
	assert.Len(t, p.All(), 2)
}

func TestProcess_ContextCancelled(t *testing.T) {
	p := NewProcessor(WithDelayRange(time.Minute, 2*time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Process(ctx, "order-1", 10)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, p.ByOrder("order-1"), "a cancelled attempt records nothing")
}
