package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"paygate/internal/domain"
)

// Token prefixes that steer the mock processor.
const (
	MockTokenDecline = "tok_decline"
	MockTokenPending = "tok_pending"
	MockTokenFail    = "tok_fail"
	MockTokenTimeout = "tok_timeout"
)

// MockClient is an in-process processor for local runs and demos.
// Tokens are accepted unless their prefix selects another outcome.
type MockClient struct {
	mu           sync.Mutex
	transactions map[string]domain.Money
}

// NewMockClient creates a new mock processor.
func NewMockClient() *MockClient {
	return &MockClient{transactions: make(map[string]domain.Money)}
}

// Authorize implements Client.
func (m *MockClient) Authorize(ctx context.Context, token string, amount domain.Money) (domain.TransactionResult, error) {
	return m.charge(ctx, OpAuthorize, token, amount)
}

// Capture implements Client. Prior authorization ids are captured into a new id.
func (m *MockClient) Capture(ctx context.Context, tokenOrID string, amount domain.Money) (domain.TransactionResult, error) {
	m.mu.Lock()
	_, known := m.transactions[tokenOrID]
	m.mu.Unlock()

	if known {
		return m.record(amount, "cap_"), nil
	}
	return m.charge(ctx, OpCapture, tokenOrID, amount)
}

// Refund implements Client. Unknown transactions are not confirmed.
func (m *MockClient) Refund(ctx context.Context, transactionID string, amount domain.Money) (*domain.RefundConfirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: OpRefund, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[transactionID]; !ok {
		return nil, nil
	}
	return &domain.RefundConfirmation{
		RefundID:        "ref_" + uuid.NewString(),
		ConvertedAmount: amount,
	}, nil
}

func (m *MockClient) charge(ctx context.Context, op, token string, amount domain.Money) (domain.TransactionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.TransactionResult{}, &TransportError{Op: op, Err: err}
	}

	switch {
	case strings.HasPrefix(token, MockTokenTimeout):
		return domain.TransactionResult{}, &TransportError{Op: op, Err: context.DeadlineExceeded}
	case strings.HasPrefix(token, MockTokenFail):
		return domain.TransactionResult{}, &TransportError{Op: op, Err: errors.New("connection reset by peer")}
	case strings.HasPrefix(token, MockTokenDecline):
		return domain.TransactionResult{Status: domain.TransactionDeclined}, nil
	case strings.HasPrefix(token, MockTokenPending):
		result := m.record(amount, "txn_")
		result.Status = domain.TransactionPending
		return result, nil
	default:
		return m.record(amount, "txn_"), nil
	}
}

func (m *MockClient) record(amount domain.Money, prefix string) domain.TransactionResult {
	id := prefix + uuid.NewString()

	m.mu.Lock()
	m.transactions[id] = amount
	m.mu.Unlock()

	return domain.TransactionResult{
		Status:        domain.TransactionAccepted,
		TransactionID: id,
		Amount:        &amount,
	}
}
