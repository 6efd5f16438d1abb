package service

import (
	"errors"
	"fmt"

	"paygate/internal/domain"
	"paygate/internal/gateway"
)

var (
	// ErrInvalidOrderID is returned when order ID is empty.
	ErrInvalidOrderID = errors.New("invalid order id")

	// ErrInvalidToken is returned when the payment token is empty.
	ErrInvalidToken = errors.New("invalid payment token")

	// ErrInvalidAmount is returned when a refund amount is zero or negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRefundMode is returned for an unrecognized refund mode.
	ErrInvalidRefundMode = errors.New("invalid refund mode")

	// ErrNoTransactionID is returned when an operation needs a processor transaction id and none is available.
	ErrNoTransactionID = errors.New("no transaction id")

	// ErrExcessiveRefund is returned when a refund exceeds the amount left to refund.
	ErrExcessiveRefund = errors.New("refund exceeds remaining refundable amount")

	// ErrCurrencyMismatch is returned when a refund is requested in a currency other than the order's.
	ErrCurrencyMismatch = domain.ErrCurrencyMismatch

	// ErrOrderNotPayable is returned when processing an order that is not awaiting payment.
	ErrOrderNotPayable = errors.New("order not awaiting payment")

	// ErrOrderNotCapturable is returned when capturing an order that holds no open authorization.
	ErrOrderNotCapturable = errors.New("order has no authorization to capture")

	// ErrTransactionMismatch is returned when a capture names a transaction other than the order's.
	ErrTransactionMismatch = errors.New("transaction id does not match order")

	// ErrCaptureFailed is returned when the processor did not capture the funds.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrUnreconciled is returned when an earlier call for the same operation and order
	// has no known outcome. An operator must resolve it first.
	ErrUnreconciled = errors.New("previous processor call has unknown outcome")

	// ErrOrderLocked is returned when another operation holds the order.
	ErrOrderLocked = errors.New("order is locked by another operation")

	// ErrInvalidOperation is returned for an operation name the journal does not track.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNothingToResolve is returned when resolving an operation with no journal entry.
	ErrNothingToResolve = errors.New("no unresolved operation")
)

var validationErrors = []error{
	ErrInvalidOrderID,
	ErrInvalidToken,
	ErrInvalidAmount,
	ErrInvalidRefundMode,
	ErrNoTransactionID,
	ErrExcessiveRefund,
	ErrCurrencyMismatch,
	ErrOrderNotPayable,
	ErrOrderNotCapturable,
	ErrTransactionMismatch,
	ErrInvalidOperation,
}

// IsValidation reports whether err was raised by input checks, before any
// state was changed or the processor was called.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// GatewayError reports that a processor call did not produce a usable response.
// The order was not modified.
type GatewayError struct {
	Op      string
	OrderID string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s order %s: %v", e.Op, e.OrderID, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Timeout reports whether the call timed out.
func (e *GatewayError) Timeout() bool {
	var te *gateway.TransportError
	return errors.As(e.Err, &te) && te.Timeout()
}

// ProtocolError reports a processor response the gateway does not understand.
type ProtocolError struct {
	Op      string
	OrderID string
	Status  domain.TransactionStatus
	Raw     string
	// Detail replaces the default message when the status is known but the response is incomplete.
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s order %s: %s (status %q)", e.Op, e.OrderID, e.Detail, e.Status)
	}
	return fmt.Sprintf("%s order %s: unrecognized processor status %q", e.Op, e.OrderID, e.Status)
}
