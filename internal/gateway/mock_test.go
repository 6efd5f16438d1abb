package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/domain"
	"paygate/internal/metrics"
)

func TestMockClient_AuthorizeThenCaptureThenRefund(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	amount := domain.MustParseMoney("25.00", "USD")

	auth, err := client.Authorize(ctx, "tok_ok", amount)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionAccepted, auth.Status)

	capture, err := client.Capture(ctx, auth.TransactionID, amount)
	require.NoError(t, err)
	assert.NotEqual(t, auth.TransactionID, capture.TransactionID)

	confirmation, err := client.Refund(ctx, capture.TransactionID, amount)
	require.NoError(t, err)
	require.NotNil(t, confirmation)
	assert.True(t, confirmation.ConvertedAmount.Equal(amount))
}

func TestMockClient_TokenPrefixes(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	amount := domain.MustParseMoney("1.00", "USD")

	declined, err := client.Authorize(ctx, MockTokenDecline, amount)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionDeclined, declined.Status)

	pending, err := client.Authorize(ctx, MockTokenPending+"_1", amount)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionPending, pending.Status)
	assert.NotEmpty(t, pending.TransactionID)

	_, err = client.Capture(ctx, MockTokenTimeout, amount)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.Timeout())
}

func TestMockClient_RefundUnknownTransaction(t *testing.T) {
	confirmation, err := NewMockClient().Refund(context.Background(), "nope", domain.MustParseMoney("1.00", "USD"))
	require.NoError(t, err)
	assert.Nil(t, confirmation)
}

func TestInstrumentedClient_RecordsOutcomes(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	client := NewInstrumentedClient(NewMockClient(), m)
	ctx := context.Background()
	amount := domain.MustParseMoney("1.00", "USD")

	_, _ = client.Authorize(ctx, "tok_ok", amount)
	_, _ = client.Authorize(ctx, MockTokenDecline, amount)
	_, _ = client.Capture(ctx, MockTokenTimeout, amount)
	_, _ = client.Refund(ctx, "unknown", amount)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProcessorCalls.WithLabelValues(OpAuthorize, "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProcessorCalls.WithLabelValues(OpAuthorize, "declined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProcessorCalls.WithLabelValues(OpCapture, "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProcessorCalls.WithLabelValues(OpRefund, "unconfirmed")))
}
