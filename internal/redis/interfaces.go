package redis

import (
	"context"

	"paygate/internal/domain"
)

// OrderLocker defines the interface for per-order mutual exclusion.
type OrderLocker interface {
	Lock(ctx context.Context, orderID string) (func(), error)
}

// Journal defines the interface for tracking processor calls with unsettled outcomes.
type Journal interface {
	Begin(ctx context.Context, operation, orderID string) (*domain.PendingOperation, error)
	Complete(ctx context.Context, operation, orderID string) error
	MarkUnknown(ctx context.Context, operation, orderID string, cause error) error
	Resolve(ctx context.Context, operation, orderID string) (bool, error)
	Unresolved(ctx context.Context) ([]domain.PendingOperation, error)
}

// Ensure concrete types implement interfaces.
var (
	_ OrderLocker = (*OrderLockStore)(nil)
	_ Journal     = (*OperationJournal)(nil)
)
