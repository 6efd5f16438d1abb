package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"paygate/internal/domain"
	"paygate/internal/gateway"
	"paygate/internal/redis"
)

// OperationsService exposes the operation journal to operators.
type OperationsService struct {
	journal redis.Journal
	logger  *zap.Logger
}

// NewOperationsService creates a new OperationsService.
func NewOperationsService(journal redis.Journal, logger *zap.Logger) *OperationsService {
	return &OperationsService{journal: journal, logger: logger}
}

// Unresolved lists processor calls whose outcome is not settled.
func (s *OperationsService) Unresolved(ctx context.Context) ([]domain.PendingOperation, error) {
	return s.journal.Unresolved(ctx)
}

// Resolve clears a journal entry after the operator confirmed the outcome with the processor
// and corrected the order if needed. Later calls of the operation are allowed again.
func (s *OperationsService) Resolve(ctx context.Context, operation, orderID string) error {
	if orderID == "" {
		return ErrInvalidOrderID
	}
	switch operation {
	case gateway.OpAuthorize, gateway.OpCapture, gateway.OpRefund:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOperation, operation)
	}

	ok, err := s.journal.Resolve(ctx, operation, orderID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s on order %s", ErrNothingToResolve, operation, orderID)
	}

	s.logger.Info("operation resolved", zap.String("op", operation), zap.String("order_id", orderID))
	return nil
}
