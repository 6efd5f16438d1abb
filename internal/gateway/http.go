package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"paygate/internal/domain"
)

// maxResponseBytes caps how much of a processor response is read.
const maxResponseBytes = 1 << 20

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	BaseURL           string
	AccountNumber     string
	MerchantProfileID string
	// Timeout applies to calls whose context carries no deadline.
	Timeout time.Duration
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// HTTPClient talks to the processor's JSON API.
type HTTPClient struct {
	baseURL           string
	accountNumber     string
	merchantProfileID string
	timeout           time.Duration
	http              *http.Client
}

// NewHTTPClient creates a processor client. Outbound requests are recorded as
// New Relic external segments when the context carries a transaction.
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &HTTPClient{
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		accountNumber:     opts.AccountNumber,
		merchantProfileID: opts.MerchantProfileID,
		timeout:           opts.Timeout,
		http:              &http.Client{Transport: newrelic.NewRoundTripper(transport)},
	}
}

type chargeRequest struct {
	AccountNumber     string `json:"account_number"`
	MerchantProfileID string `json:"merchant_profile_id,omitempty"`
	Token             string `json:"token,omitempty"`
	Source            string `json:"source,omitempty"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
}

type chargeResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Amount        *int64 `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

type refundRequest struct {
	AccountNumber string `json:"account_number"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

type refundResponse struct {
	Status                  string `json:"status"`
	RefundID                string `json:"refund_id"`
	CurrencyConvertedAmount int64  `json:"currency_converted_amount"`
	Currency                string `json:"currency"`
}

// Authorize implements Client.
func (c *HTTPClient) Authorize(ctx context.Context, token string, amount domain.Money) (domain.TransactionResult, error) {
	return c.charge(ctx, OpAuthorize, "/v1/authorizations", chargeRequest{
		AccountNumber:     c.accountNumber,
		MerchantProfileID: c.merchantProfileID,
		Token:             token,
		Amount:            amount.MinorUnits(),
		Currency:          amount.Currency(),
	})
}

// Capture implements Client.
func (c *HTTPClient) Capture(ctx context.Context, tokenOrID string, amount domain.Money) (domain.TransactionResult, error) {
	return c.charge(ctx, OpCapture, "/v1/captures", chargeRequest{
		AccountNumber:     c.accountNumber,
		MerchantProfileID: c.merchantProfileID,
		Source:            tokenOrID,
		Amount:            amount.MinorUnits(),
		Currency:          amount.Currency(),
	})
}

// Refund implements Client.
func (c *HTTPClient) Refund(ctx context.Context, transactionID string, amount domain.Money) (*domain.RefundConfirmation, error) {
	status, body, err := c.post(ctx, OpRefund, "/v1/refunds", refundRequest{
		AccountNumber: c.accountNumber,
		TransactionID: transactionID,
		Amount:        amount.MinorUnits(),
		Currency:      amount.Currency(),
	})
	if err != nil {
		return nil, err
	}

	// The processor answered but did not confirm.
	if status >= 400 {
		return nil, nil
	}

	// A 2xx the client cannot read may still be a completed refund.
	var resp refundResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Op: OpRefund, Body: string(body), Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.RefundID == "" || strings.EqualFold(resp.Status, string(domain.TransactionDeclined)) {
		return nil, nil
	}

	currency := resp.Currency
	if currency == "" {
		currency = amount.Currency()
	}
	converted, err := domain.FromMinorUnits(resp.CurrencyConvertedAmount, currency)
	if err != nil {
		return nil, &TransportError{Op: OpRefund, Body: string(body), Err: fmt.Errorf("refund %s: %w", resp.RefundID, err)}
	}

	return &domain.RefundConfirmation{RefundID: resp.RefundID, ConvertedAmount: converted}, nil
}

func (c *HTTPClient) charge(ctx context.Context, op, path string, req chargeRequest) (domain.TransactionResult, error) {
	_, body, err := c.post(ctx, op, path, req)
	if err != nil {
		return domain.TransactionResult{}, err
	}

	result := domain.TransactionResult{Raw: string(body)}

	var resp chargeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Leave Status empty; the caller treats it as an unrecognized status.
		return result, nil
	}

	result.Status = domain.TransactionStatus(strings.ToLower(resp.Status))
	result.TransactionID = resp.TransactionID
	if resp.Amount != nil {
		currency := resp.Currency
		if currency == "" {
			currency = req.Currency
		}
		if m, err := domain.FromMinorUnits(*resp.Amount, currency); err == nil {
			result.Amount = &m
		}
	}
	return result, nil
}

// post sends a JSON request and returns the status code and body of any non-5xx response.
func (c *HTTPClient) post(ctx context.Context, op, path string, payload any) (int, []byte, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode >= 500 {
		return 0, nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return resp.StatusCode, body, nil
}
