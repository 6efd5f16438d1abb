package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/domain"
	"paygate/internal/service"
)

// authorizedOrder returns an order authorized but not yet captured.
func authorizedOrder(id string) *domain.Order {
	order := newOrder(id, "100.00")
	order.Status = domain.OrderStatusAcceptedPayment
	order.TransactionID = "auth-" + id
	order.Token = "tok-" + id
	return order
}

// ──────────────────────────────────────────────
// 4. CAPTURE
// ──────────────────────────────────────────────

func TestCapture_Success(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.orders.AddOrder(authorizedOrder("order-1"))
	h.client.CaptureResult = domain.TransactionResult{Status: domain.TransactionAccepted, TransactionID: "cap-77"}

	ok, err := h.transactions.Capture(context.Background(), "order-1", "auth-order-1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "auth-order-1", h.client.LastCaptureArg)

	stored := h.orders.GetOrder("order-1")
	assert.Equal(t, domain.OrderStatusAcceptedPayment, stored.Status)
	assert.Equal(t, "cap-77", stored.TransactionID)
	assert.True(t, stored.Captured)

	events := h.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPaymentCaptured, events[0].Type)
}

func TestCapture_PendingOrderBecomesAccepted(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	order := authorizedOrder("order-1")
	order.Status = domain.OrderStatusOrderReceived
	h.orders.AddOrder(order)

	ok, err := h.transactions.Capture(context.Background(), "order-1", order.TransactionID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.OrderStatusAcceptedPayment, h.orders.GetOrder("order-1").Status)
}

func TestCapture_OtherGateway_NoProcessorCall(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	order := authorizedOrder("order-1")
	order.Gateway = "cheque"
	h.orders.AddOrder(order)

	ok, err := h.transactions.Capture(context.Background(), "order-1", "auth-order-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(0), h.client.TotalCalls())
	assert.Equal(t, int32(0), h.orders.SaveCallCount)
}

func TestCapture_MissingTransactionID(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.orders.AddOrder(authorizedOrder("order-1"))

	_, err := h.transactions.Capture(context.Background(), "order-1", "")
	assert.ErrorIs(t, err, service.ErrNoTransactionID)
	assert.Equal(t, int32(0), h.client.TotalCalls())
}

func TestCapture_AlreadyCaptured_NoProcessorCall(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.orders.AddOrder(paidOrder("order-1", "100.00"))

	ok, err := h.transactions.Capture(context.Background(), "order-1", "txn-order-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(0), h.client.TotalCalls())
}

func TestCapture_Failures_OrderUnchanged(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		result domain.TransactionResult
	}{
		{"empty transaction id", domain.TransactionResult{Status: domain.TransactionAccepted}},
		{"declined", domain.TransactionResult{Status: domain.TransactionDeclined, TransactionID: "cap-1"}},
		{"failed", domain.TransactionResult{Status: domain.TransactionFailed}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.orders.AddOrder(authorizedOrder("order-1"))
			h.client.CaptureResult = tc.result

			ok, err := h.transactions.Capture(context.Background(), "order-1", "auth-order-1")
			assert.False(t, ok)
			assert.ErrorIs(t, err, service.ErrCaptureFailed)

			stored := h.orders.GetOrder("order-1")
			assert.Equal(t, "auth-order-1", stored.TransactionID)
			assert.False(t, stored.Captured)
			assert.Equal(t, int32(0), h.orders.SaveCallCount)
		})
	}
}

func TestCapture_UnrecognizedStatus_ProtocolError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.orders.AddOrder(authorizedOrder("order-1"))
	h.client.CaptureResult = domain.TransactionResult{Status: "held", TransactionID: "cap-1"}

	_, err := h.transactions.Capture(context.Background(), "order-1", "auth-order-1")

	var pe *service.ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, domain.TransactionStatus("held"), pe.Status)
	assert.False(t, h.orders.GetOrder("order-1").Captured)
}

func TestCapture_TimeoutBlocksRetryUntilResolved(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.orders.AddOrder(authorizedOrder("order-1"))
	h.client.CaptureError = ErrMockTimeout

	_, err := h.transactions.Capture(context.Background(), "order-1", "auth-order-1")

	var ge *service.GatewayError
	require.True(t, errors.As(err, &ge))
	assert.True(t, ge.Timeout())

	h.client.CaptureError = nil
	_, err = h.transactions.Capture(context.Background(), "order-1", "auth-order-1")
	assert.ErrorIs(t, err, service.ErrUnreconciled)
	assert.Equal(t, int32(1), h.client.CaptureCallCount)
}

func TestCapture_UnauthorizedOrder_Rejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.orders.AddOrder(newOrder("order-1", "100.00"))

	ok, err := h.transactions.Capture(context.Background(), "order-1", "anything")
	assert.False(t, ok)
	assert.ErrorIs(t, err, service.ErrNoTransactionID)
	assert.True(t, service.IsValidation(err))

	assert.Equal(t, int32(0), h.client.TotalCalls())
	assert.Equal(t, int32(0), h.orders.SaveCallCount)
	assert.Equal(t, domain.OrderStatusAwaitingPayment, h.orders.GetOrder("order-1").Status)
}

func TestCapture_TransactionMismatch_Rejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.orders.AddOrder(authorizedOrder("order-1"))

	ok, err := h.transactions.Capture(context.Background(), "order-1", "auth-order-2")
	assert.False(t, ok)
	assert.ErrorIs(t, err, service.ErrTransactionMismatch)
	assert.Equal(t, int32(0), h.client.TotalCalls())
	assert.Equal(t, "auth-order-1", h.orders.GetOrder("order-1").TransactionID)
}

func TestCapture_RefundedAuthorization_Rejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.orders.AddOrder(authorizedOrder("order-1"))
	ctx := context.Background()

	_, err := h.refunds.Refund(ctx, "order-1", manualRefund("100.00"))
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusRefunded, h.orders.GetOrder("order-1").Status)

	ok, err := h.transactions.Capture(ctx, "order-1", "auth-order-1")
	assert.False(t, ok)
	assert.ErrorIs(t, err, service.ErrOrderNotCapturable)
	assert.Equal(t, int32(0), h.client.TotalCalls())

	stored := h.orders.GetOrder("order-1")
	assert.Equal(t, domain.OrderStatusRefunded, stored.Status)
	assert.False(t, stored.Captured)
	assert.Equal(t, "100.00 USD", stored.TotalRefunded.String())
}

func TestCapture_DeclinedOrder_Rejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	order := authorizedOrder("order-1")
	order.Status = domain.OrderStatusPaymentDeclined
	h.orders.AddOrder(order)

	_, err := h.transactions.Capture(context.Background(), "order-1", "auth-order-1")
	assert.ErrorIs(t, err, service.ErrOrderNotCapturable)
	assert.Equal(t, int32(0), h.client.TotalCalls())
}
