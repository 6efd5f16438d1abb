package domain

import "time"

// EventType identifies a lifecycle event raised by the gateway.
type EventType string

const (
	// EventPaymentProcessed signals that checkout may hand the buyer off to the results view.
	EventPaymentProcessed EventType = "payment.processed"
	EventPaymentCaptured  EventType = "payment.captured"
	EventOrderRefunded    EventType = "order.refunded"
)

// Event is emitted after a lifecycle operation has been persisted.
type Event struct {
	ID              string      `json:"id"`
	Type            EventType   `json:"type"`
	OrderID         string      `json:"order_id"`
	Status          OrderStatus `json:"status"`
	TransactionID   string      `json:"transaction_id,omitempty"`
	Amount          *Money      `json:"amount,omitempty"`
	ProcessorAmount *Money      `json:"processor_amount,omitempty"`
	RefundMode      RefundMode  `json:"refund_mode,omitempty"`
	OccurredAt      time.Time   `json:"occurred_at"`
}
