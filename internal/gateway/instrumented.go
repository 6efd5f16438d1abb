package gateway

import (
	"context"
	"time"

	"paygate/internal/domain"
	"paygate/internal/metrics"
)

// InstrumentedClient records call counts and latency for a Client.
type InstrumentedClient struct {
	next    Client
	metrics *metrics.Metrics
}

// NewInstrumentedClient wraps next with Prometheus instrumentation.
func NewInstrumentedClient(next Client, m *metrics.Metrics) *InstrumentedClient {
	return &InstrumentedClient{next: next, metrics: m}
}

// Authorize implements Client.
func (c *InstrumentedClient) Authorize(ctx context.Context, token string, amount domain.Money) (domain.TransactionResult, error) {
	start := time.Now()
	result, err := c.next.Authorize(ctx, token, amount)
	c.observe(OpAuthorize, start, chargeOutcome(result, err))
	return result, err
}

// Capture implements Client.
func (c *InstrumentedClient) Capture(ctx context.Context, tokenOrID string, amount domain.Money) (domain.TransactionResult, error) {
	start := time.Now()
	result, err := c.next.Capture(ctx, tokenOrID, amount)
	c.observe(OpCapture, start, chargeOutcome(result, err))
	return result, err
}

// Refund implements Client.
func (c *InstrumentedClient) Refund(ctx context.Context, transactionID string, amount domain.Money) (*domain.RefundConfirmation, error) {
	start := time.Now()
	confirmation, err := c.next.Refund(ctx, transactionID, amount)

	outcome := "confirmed"
	switch {
	case err != nil:
		outcome = errorOutcome(err)
	case confirmation == nil:
		outcome = "unconfirmed"
	}
	c.observe(OpRefund, start, outcome)
	return confirmation, err
}

func (c *InstrumentedClient) observe(op string, start time.Time, outcome string) {
	c.metrics.ProcessorCalls.WithLabelValues(op, outcome).Inc()
	c.metrics.ProcessorMS.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}

func chargeOutcome(result domain.TransactionResult, err error) string {
	if err != nil {
		return errorOutcome(err)
	}
	switch result.Status {
	case domain.TransactionAccepted, domain.TransactionPending, domain.TransactionDeclined, domain.TransactionFailed:
		return string(result.Status)
	default:
		return "unrecognized"
	}
}

func errorOutcome(err error) string {
	if te, ok := err.(*TransportError); ok && te.Timeout() {
		return "timeout"
	}
	return "error"
}
