package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paygate/internal/domain"
)

// EventPublisher delivers lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// LogPublisher writes events to the application log.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event domain.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("order_id", event.OrderID),
		zap.String("status", string(event.Status)),
	}
	if event.TransactionID != "" {
		fields = append(fields, zap.String("transaction_id", event.TransactionID))
	}
	if event.Amount != nil {
		fields = append(fields, zap.Stringer("amount", event.Amount))
	}
	if event.ProcessorAmount != nil {
		fields = append(fields, zap.Stringer("processor_amount", event.ProcessorAmount))
	}
	if event.RefundMode != "" {
		fields = append(fields, zap.String("refund_mode", string(event.RefundMode)))
	}

	p.logger.Info("event", fields...)
	return nil
}

// MultiPublisher fans an event out to several publishers.
// Every publisher is attempted; failures are joined.
type MultiPublisher []EventPublisher

// Publish implements EventPublisher.
func (m MultiPublisher) Publish(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newEvent(eventType domain.EventType, order *domain.Order) domain.Event {
	return domain.Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		OrderID:       order.ID,
		Status:        order.Status,
		TransactionID: order.TransactionID,
		OccurredAt:    time.Now().UTC(),
	}
}

// publish sends event and logs delivery failures. State is already persisted,
// so a failed publish never fails the operation.
func publish(ctx context.Context, publisher EventPublisher, logger *zap.Logger, event domain.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}
