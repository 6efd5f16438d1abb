package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"paygate/internal/domain"
	"paygate/internal/gateway"
	"paygate/internal/metrics"
	"paygate/internal/redis"
	"paygate/internal/repository"
)

// Note formats written to the order history.
const (
	manualRefundNote  = "Refunded %s via Manual Refund"
	gatewayRefundNote = "Refunded %s - Refund ID: %s"
)

const refundNotConfirmed = "refund not confirmed by processor"

// RefundService returns captured funds and keeps the order's refund ledger.
type RefundService struct {
	orders  repository.OrderRepository
	client  gateway.Client
	locker  redis.OrderLocker
	journal redis.Journal
	events  EventPublisher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRefundService creates a new RefundService. m may be nil.
func NewRefundService(
	orders repository.OrderRepository,
	client gateway.Client,
	locker redis.OrderLocker,
	journal redis.Journal,
	events EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		orders:  orders,
		client:  client,
		locker:  locker,
		journal: journal,
		events:  events,
		metrics: m,
		logger:  logger,
	}
}

// Refund returns req.Amount of the order's funds.
//
// Manual refunds are recorded in the ledger without calling the processor.
// A gateway refund the processor does not confirm is reported through the
// outcome with Succeeded false; the order is left unchanged.
func (s *RefundService) Refund(ctx context.Context, orderID string, req domain.RefundRequest) (*domain.RefundOutcome, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, req.Amount)
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.RefundModeGateway
	}
	if mode != domain.RefundModeGateway && mode != domain.RefundModeManual {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRefundMode, req.Mode)
	}

	unlock, err := lockOrder(ctx, s.locker, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.TransactionID == "" {
		return nil, fmt.Errorf("%w: order %s", ErrNoTransactionID, orderID)
	}

	if req.Amount.Currency() != order.Currency() {
		return nil, fmt.Errorf("%w: refund in %s for order in %s", ErrCurrencyMismatch, req.Amount.Currency(), order.Currency())
	}

	remaining, err := order.RemainingRefundable()
	if err != nil {
		return nil, err
	}
	cmp, err := req.Amount.Cmp(remaining)
	if err != nil {
		return nil, err
	}
	if cmp > 0 {
		return nil, fmt.Errorf("%w: requested %s, remaining %s", ErrExcessiveRefund, req.Amount, remaining)
	}

	outcome := &domain.RefundOutcome{
		Mode:   mode,
		Amount: req.Amount,
	}

	var note string
	if mode == domain.RefundModeManual {
		note = fmt.Sprintf(manualRefundNote, req.Amount)
	} else {
		var confirmation *domain.RefundConfirmation
		err := journaledCall(ctx, s.journal, s.logger, gateway.OpRefund, orderID, func() error {
			var callErr error
			confirmation, callErr = s.client.Refund(ctx, order.TransactionID, req.Amount)
			return callErr
		})
		if err != nil {
			s.logger.Error("refund call failed",
				zap.String("op", gateway.OpRefund), zap.String("order_id", orderID), zap.Error(err))
			return nil, err
		}

		if confirmation == nil {
			s.logger.Warn(refundNotConfirmed,
				zap.String("order_id", orderID),
				zap.String("transaction_id", order.TransactionID),
				zap.Stringer("amount", req.Amount))
			outcome.TotalRefunded = order.TotalRefunded
			outcome.FailureReason = refundNotConfirmed
			return outcome, nil
		}

		converted := confirmation.ConvertedAmount
		outcome.RefundID = confirmation.RefundID
		outcome.ProcessorAmount = &converted
		if !converted.Equal(req.Amount) {
			outcome.AmountMismatch = true
			s.logger.Warn("processor refunded a different amount than requested",
				zap.String("order_id", orderID),
				zap.String("refund_id", confirmation.RefundID),
				zap.Stringer("requested", req.Amount),
				zap.Stringer("processor_amount", converted))
		}
		note = fmt.Sprintf(gatewayRefundNote, converted, confirmation.RefundID)
	}

	if err := s.record(ctx, order, req, note); err != nil {
		return nil, err
	}

	outcome.Succeeded = true
	outcome.TotalRefunded = order.TotalRefunded

	if s.metrics != nil {
		s.metrics.RefundsRecorded.WithLabelValues(string(mode)).Inc()
	}

	s.logger.Info("order refunded",
		zap.String("order_id", orderID),
		zap.String("mode", string(mode)),
		zap.Stringer("amount", req.Amount),
		zap.Stringer("total_refunded", order.TotalRefunded),
		zap.String("status", string(order.Status)))

	event := newEvent(domain.EventOrderRefunded, order)
	event.Amount = &outcome.Amount
	event.ProcessorAmount = outcome.ProcessorAmount
	event.RefundMode = mode
	publish(ctx, s.events, s.logger, event)

	return outcome, nil
}

// record writes the ledger, the history note and the resulting status, in that order.
func (s *RefundService) record(ctx context.Context, order *domain.Order, req domain.RefundRequest, note string) error {
	total, err := order.TotalRefunded.Add(req.Amount)
	if err != nil {
		return err
	}

	if err := s.orders.Save(ctx, order.SetTotalRefunded(total)); err != nil {
		return fmt.Errorf("save refund ledger for order %s: %w", order.ID, err)
	}

	if err := s.orders.AppendNote(ctx, order.ID, note, req.Reason); err != nil {
		return fmt.Errorf("append refund note for order %s: %w", order.ID, err)
	}

	if order.Status == domain.OrderStatusAcceptedPayment || order.Status == domain.OrderStatusPartiallyRefunded {
		status := domain.OrderStatusPartiallyRefunded
		if order.FullyRefunded() {
			status = domain.OrderStatusRefunded
		}
		if err := s.orders.Save(ctx, order.SetStatus(status)); err != nil {
			return fmt.Errorf("save refund status for order %s: %w", order.ID, err)
		}
	}

	return nil
}
