package repository

import (
	"context"

	"paygate/internal/domain"
)

// OrderRepository defines the persistence operations for orders.
// Orders are owned by the host store; the gateway only reads and updates them.
type OrderRepository interface {
	// Create registers a new order. Used by the host side, never by the gateway core.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order and its notes.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// Save writes the order's mutable fields. Saving unchanged state is a no-op.
	Save(ctx context.Context, order *domain.Order) error

	// AppendNote adds an entry to the order's note history.
	AppendNote(ctx context.Context, orderID, text, reason string) error
}
