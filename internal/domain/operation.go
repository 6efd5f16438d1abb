package domain

import "time"

// OperationState tracks an external call whose outcome is not yet settled.
type OperationState string

const (
	// OperationInFlight is recorded just before the processor is called.
	OperationInFlight OperationState = "in_flight"
	// OperationUnknown is recorded when the call failed in transport and the
	// processor may or may not have applied it.
	OperationUnknown OperationState = "unknown"
)

// PendingOperation is a journal entry for a processor call on an order.
type PendingOperation struct {
	Operation string         `json:"operation"`
	OrderID   string         `json:"order_id"`
	State     OperationState `json:"state"`
	StartedAt time.Time      `json:"started_at"`
	LastError string         `json:"last_error,omitempty"`
}
