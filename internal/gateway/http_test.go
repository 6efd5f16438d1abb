package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(HTTPOptions{
		BaseURL:       srv.URL,
		AccountNumber: "acct-42",
		Timeout:       2 * time.Second,
	})
}

func TestHTTPClient_AuthorizeSendsMinorUnits(t *testing.T) {
	var got chargeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/authorizations", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"ACCEPTED","transaction_id":"txn-1","amount":10000,"currency":"USD"}`))
	})

	result, err := client.Authorize(context.Background(), "tok-1", domain.MustParseMoney("100.00", "USD"))
	require.NoError(t, err)

	assert.Equal(t, "acct-42", got.AccountNumber)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, int64(10000), got.Amount)
	assert.Equal(t, domain.TransactionAccepted, result.Status)
	assert.Equal(t, "txn-1", result.TransactionID)
	require.NotNil(t, result.Amount)
	assert.Equal(t, "100.00 USD", result.Amount.String())
}

func TestHTTPClient_CaptureUnknownStatusIsPassedThrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/captures", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"under_review","transaction_id":"txn-2"}`))
	})

	result, err := client.Capture(context.Background(), "auth-1", domain.MustParseMoney("5.00", "USD"))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatus("under_review"), result.Status)
	assert.Contains(t, result.Raw, "under_review")
}

func TestHTTPClient_ServerErrorIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Authorize(context.Background(), "tok", domain.MustParseMoney("1.00", "USD"))

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	assert.False(t, te.Timeout())
}

func TestHTTPClient_TimeoutIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Capture(ctx, "auth-1", domain.MustParseMoney("1.00", "USD"))

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.Timeout())
}

func TestHTTPClient_RefundConfirmed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req refundRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "txn-1", req.TransactionID)
		assert.Equal(t, int64(4000), req.Amount)
		_, _ = w.Write([]byte(`{"status":"refunded","refund_id":"r-9","currency_converted_amount":3950,"currency":"USD"}`))
	})

	confirmation, err := client.Refund(context.Background(), "txn-1", domain.MustParseMoney("40.00", "USD"))
	require.NoError(t, err)
	require.NotNil(t, confirmation)
	assert.Equal(t, "r-9", confirmation.RefundID)
	assert.Equal(t, "39.50 USD", confirmation.ConvertedAmount.String())
}

func TestHTTPClient_RefundNotConfirmed(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
	}{
		{"client error", http.StatusUnprocessableEntity, `{"error":"already refunded"}`},
		{"declined", http.StatusOK, `{"status":"declined"}`},
		{"missing id", http.StatusOK, `{"status":"refunded"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			confirmation, err := client.Refund(context.Background(), "txn-1", domain.MustParseMoney("1.00", "USD"))
			require.NoError(t, err)
			assert.Nil(t, confirmation)
		})
	}
}

func TestHTTPClient_RefundUnreadableResponseIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"refunded","refund_id":`))
	})

	confirmation, err := client.Refund(context.Background(), "txn-1", domain.MustParseMoney("1.00", "USD"))
	assert.Nil(t, confirmation)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, OpRefund, te.Op)
	assert.False(t, te.Timeout())
	assert.Contains(t, te.Body, "refund_id")
}
