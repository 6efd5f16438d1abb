package domain

import "time"

// OrderStatus represents the payment status of an order.
type OrderStatus string

const (
	OrderStatusAwaitingPayment   OrderStatus = "awaiting_payment"
	OrderStatusOrderReceived     OrderStatus = "order_received"
	OrderStatusAcceptedPayment   OrderStatus = "accepted_payment"
	OrderStatusPaymentDeclined   OrderStatus = "payment_declined"
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded"
	OrderStatusRefunded          OrderStatus = "refunded"
)

// Payable reports whether a payment may be submitted for an order in this status.
// A declined order may be retried with a new token.
func (s OrderStatus) Payable() bool {
	return s == OrderStatusAwaitingPayment || s == OrderStatusPaymentDeclined
}

// Note is an append-only entry in an order's history.
type Note struct {
	ID        string
	OrderID   string
	Text      string
	Reason    string
	CreatedAt time.Time
}

// Order is the externally-owned purchase record the gateway reads and mutates.
// Setters are builder-style: they return the same order and are not persisted until saved.
type Order struct {
	ID            string
	Gateway       string
	TotalPrice    Money
	TotalRefunded Money
	Status        OrderStatus
	TransactionID string
	Token         string
	Captured      bool
	Notes         []Note
	UpdatedAt     time.Time
}

// Currency returns the order's currency.
func (o *Order) Currency() string { return o.TotalPrice.Currency() }

// SetStatus sets the order status.
func (o *Order) SetStatus(status OrderStatus) *Order {
	o.Status = status
	return o
}

// SetTransactionID sets the processor transaction id.
func (o *Order) SetTransactionID(id string) *Order {
	o.TransactionID = id
	return o
}

// SetToken sets the payment token used for the last attempt.
func (o *Order) SetToken(token string) *Order {
	o.Token = token
	return o
}

// SetCaptured records whether funds were captured or only authorized.
func (o *Order) SetCaptured(captured bool) *Order {
	o.Captured = captured
	return o
}

// SetTotalRefunded replaces the cumulative refunded amount.
func (o *Order) SetTotalRefunded(total Money) *Order {
	o.TotalRefunded = total
	return o
}

// RemainingRefundable returns TotalPrice - TotalRefunded.
func (o *Order) RemainingRefundable() (Money, error) {
	return o.TotalPrice.Sub(o.TotalRefunded)
}

// FullyRefunded reports whether the refunded total has reached the order total.
func (o *Order) FullyRefunded() bool {
	return o.TotalRefunded.Equal(o.TotalPrice)
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	c := *o
	if o.Notes != nil {
		c.Notes = make([]Note, len(o.Notes))
		copy(c.Notes, o.Notes)
	}
	return &c
}
