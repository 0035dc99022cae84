// Package paymentservice simulates the payment gateway: a bounded random
// delay followed by a probabilistic outcome. Payments are immutable once
// created and kept in an append-only in-memory store keyed by order id.
package paymentservice

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the terminal state of one payment attempt.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentSuccess PaymentStatus = "Success"
	PaymentFailed  PaymentStatus = "Failed"
)

const failureReason = "insufficient funds or card declined (simulated)"

// Payment is one processed payment attempt. Immutable after creation.
type Payment struct {
	PaymentID     string
	OrderID       string
	Amount        float64
	Status        PaymentStatus
	ProcessedAt   time.Time
	FailureReason string
}

// Option tweaks the simulator, mainly for tests.
type Option func(*Processor)

// WithSuccessRate overrides the default 0.8 success probability.
func WithSuccessRate(p float64) Option {
	return func(pr *Processor) { pr.successRate = p }
}

// WithDelayRange overrides the simulated processing delay bounds.
func WithDelayRange(min, max time.Duration) Option {
	return func(pr *Processor) { pr.minDelay, pr.maxDelay = min, max }
}

// WithRand injects a deterministic random source.
func WithRand(r *rand.Rand) Option {
	return func(pr *Processor) { pr.rnd = r }
}

// Processor runs simulated payments and records every attempt.
type Processor struct {
	successRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	rnd         *rand.Rand

	mu       sync.Mutex
	payments map[string][]Payment // order id -> attempts, append-only
}

func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		successRate: 0.8,
		minDelay:    100 * time.Millisecond,
		maxDelay:    500 * time.Millisecond,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		payments:    make(map[string][]Payment),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process simulates one payment attempt for the order and records the
// outcome. The context bounds the simulated delay.
func (p *Processor) Process(ctx context.Context, orderID string, amount float64) (Payment, error) {
	slog.InfoContext(ctx, "processing payment", "order_id", orderID, "amount", amount)

	delay, success := p.roll()

	select {
	case <-ctx.Done():
		return Payment{}, ctx.Err()
	case <-time.After(delay):
	}

	payment := Payment{
		PaymentID:   uuid.NewString(),
		OrderID:     orderID,
		Amount:      amount,
		ProcessedAt: time.Now().UTC(),
	}
	if success {
		payment.Status = PaymentSuccess
	} else {
		payment.Status = PaymentFailed
		payment.FailureReason = failureReason
	}

	p.mu.Lock()
	p.payments[orderID] = append(p.payments[orderID], payment)
	p.mu.Unlock()

	slog.InfoContext(ctx, "payment processed",
		"payment_id", payment.PaymentID, "order_id", orderID, "status", payment.Status)
	return payment, nil
}

// roll draws the delay and outcome under the lock; rand.Rand is not safe for
// concurrent use.
func (p *Processor) roll() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delay := p.minDelay
	if spread := p.maxDelay - p.minDelay; spread > 0 {
		delay += time.Duration(p.rnd.Int63n(int64(spread)))
	}
	return delay, p.rnd.Float64() < p.successRate
}

// ByOrder returns every payment attempt recorded for the order, in
// processing order.
func (p *Processor) ByOrder(orderID string) []Payment {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Payment, len(p.payments[orderID]))
	copy(out, p.payments[orderID])
	return out
}

// All returns every recorded payment.
func (p *Processor) All() []Payment {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Payment
	for _, ps := range p.payments {
		out = append(out, ps...)
	}
	return out
}
