package gateway

import (
	"context"
	"errors"
	"fmt"

	"paygate/internal/domain"
)

// Operation names used in errors, metrics and the operation journal.
const (
	OpAuthorize = "authorize"
	OpCapture   = "capture"
	OpRefund    = "refund"
)

// Client is the boundary to the remote payment processor.
// Calls block on the network and never retry.
type Client interface {
	// Authorize reserves amount against a single-use payment token.
	Authorize(ctx context.Context, token string, amount domain.Money) (domain.TransactionResult, error)

	// Capture transfers funds for a token (immediate capture) or a prior authorization id.
	Capture(ctx context.Context, tokenOrID string, amount domain.Money) (domain.TransactionResult, error)

	// Refund returns funds for a transaction. A nil confirmation with a nil error
	// means the processor did not confirm the refund.
	Refund(ctx context.Context, transactionID string, amount domain.Money) (*domain.RefundConfirmation, error)
}

// TransportError reports that a call did not produce a usable response:
// connection failures, timeouts, and processor 5xx responses.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("processor %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("processor %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the call failed because its deadline expired.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}
