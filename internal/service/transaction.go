package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"paygate/internal/domain"
	"paygate/internal/gateway"
	"paygate/internal/redis"
	"paygate/internal/repository"
)

// TransactionService drives an order through authorize and capture.
type TransactionService struct {
	gatewayName string
	orders      repository.OrderRepository
	client      gateway.Client
	locker      redis.OrderLocker
	journal     redis.Journal
	events      EventPublisher
	logger      *zap.Logger
}

// NewTransactionService creates a new TransactionService for the named gateway.
func NewTransactionService(
	gatewayName string,
	orders repository.OrderRepository,
	client gateway.Client,
	locker redis.OrderLocker,
	journal redis.Journal,
	events EventPublisher,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		gatewayName: gatewayName,
		orders:      orders,
		client:      client,
		locker:      locker,
		journal:     journal,
		events:      events,
		logger:      logger,
	}
}

// ProcessResult is the outcome of submitting a payment for an order.
type ProcessResult struct {
	Order  *domain.Order
	Result domain.TransactionResult
}

// Process submits the order total to the processor using a single-use token.
// With captureNow the funds are captured immediately, otherwise only authorized.
// A declined payment is a successful call: the order moves to payment_declined.
func (s *TransactionService) Process(ctx context.Context, orderID, token string, captureNow bool) (*ProcessResult, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if token == "" {
		return nil, ErrInvalidToken
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

	if !order.Status.Payable() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderNotPayable, orderID, order.Status)
	}

	op := gateway.OpAuthorize
	if captureNow {
		op = gateway.OpCapture
	}

	var result domain.TransactionResult
	err = journaledCall(ctx, s.journal, s.logger, op, orderID, func() error {
		var callErr error
		if captureNow {
			result, callErr = s.client.Capture(ctx, token, order.TotalPrice)
		} else {
			result, callErr = s.client.Authorize(ctx, token, order.TotalPrice)
		}
		return callErr
	})
	if err != nil {
		s.logger.Error("payment call failed",
			zap.String("op", op), zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	if (result.Status == domain.TransactionAccepted || result.Status == domain.TransactionPending) && result.TransactionID == "" {
		s.logger.Error("processor returned no transaction id",
			zap.String("op", op),
			zap.String("order_id", orderID),
			zap.String("status", string(result.Status)),
			zap.String("raw", result.Raw))
		return nil, &ProtocolError{Op: op, OrderID: orderID, Status: result.Status, Raw: result.Raw, Detail: "missing transaction id"}
	}

	var status domain.OrderStatus
	switch result.Status {
	case domain.TransactionAccepted:
		status = domain.OrderStatusAcceptedPayment
	case domain.TransactionPending:
		status = domain.OrderStatusOrderReceived
	case domain.TransactionDeclined:
		status = domain.OrderStatusPaymentDeclined
	default:
		s.logger.Error("unrecognized processor status",
			zap.String("op", op),
			zap.String("order_id", orderID),
			zap.String("status", string(result.Status)),
			zap.String("raw", result.Raw))
		return nil, &ProtocolError{Op: op, OrderID: orderID, Status: result.Status, Raw: result.Raw}
	}

	if err := s.orders.Save(ctx, order.SetStatus(status)); err != nil {
		return nil, fmt.Errorf("save status for order %s: %w", orderID, err)
	}

	order.SetToken(token)
	if status != domain.OrderStatusPaymentDeclined {
		order.SetTransactionID(result.TransactionID).
			SetCaptured(captureNow && result.Status == domain.TransactionAccepted)
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save transaction for order %s: %w", orderID, err)
	}

	s.logger.Info("payment processed",
		zap.String("op", op),
		zap.String("order_id", orderID),
		zap.String("status", string(order.Status)),
		zap.String("transaction_id", order.TransactionID))

	event := newEvent(domain.EventPaymentProcessed, order)
	event.Amount = &order.TotalPrice
	publish(ctx, s.events, s.logger, event)

	return &ProcessResult{Order: order, Result: result}, nil
}

// Capture collects funds for a prior authorization.
// The order must hold an open authorization (accepted_payment or order_received)
// whose transaction id matches transactionID.
// It returns false without calling the processor when the order belongs to another gateway,
// and true without calling it when the order is already captured.
func (s *TransactionService) Capture(ctx context.Context, orderID, transactionID string) (bool, error) {
	if orderID == "" {
		return false, ErrInvalidOrderID
	}

	unlock, err := lockOrder(ctx, s.locker, orderID)
	if err != nil {
		return false, err
	}
	defer unlock()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}

	if order.Gateway != s.gatewayName {
		return false, nil
	}

	if transactionID == "" {
		return false, ErrNoTransactionID
	}

	if order.Captured {
		return true, nil
	}

	if order.TransactionID == "" {
		return false, fmt.Errorf("%w: order %s was never authorized", ErrNoTransactionID, orderID)
	}
	if transactionID != order.TransactionID {
		return false, fmt.Errorf("%w: order %s holds %s, got %s", ErrTransactionMismatch, orderID, order.TransactionID, transactionID)
	}
	if order.Status != domain.OrderStatusAcceptedPayment && order.Status != domain.OrderStatusOrderReceived {
		return false, fmt.Errorf("%w: order %s is %s", ErrOrderNotCapturable, orderID, order.Status)
	}

	var result domain.TransactionResult
	err = journaledCall(ctx, s.journal, s.logger, gateway.OpCapture, orderID, func() error {
		var callErr error
		result, callErr = s.client.Capture(ctx, transactionID, order.TotalPrice)
		return callErr
	})
	if err != nil {
		s.logger.Error("capture call failed",
			zap.String("op", gateway.OpCapture), zap.String("order_id", orderID), zap.Error(err))
		return false, err
	}

	switch result.Status {
	case domain.TransactionAccepted, domain.TransactionPending:
		if result.TransactionID == "" {
			s.logger.Warn("capture returned no transaction id",
				zap.String("order_id", orderID), zap.String("raw", result.Raw))
			return false, fmt.Errorf("%w: order %s: processor returned no transaction id", ErrCaptureFailed, orderID)
		}
	case domain.TransactionDeclined, domain.TransactionFailed:
		s.logger.Warn("capture declined",
			zap.String("order_id", orderID),
			zap.String("status", string(result.Status)),
			zap.String("raw", result.Raw))
		return false, fmt.Errorf("%w: order %s: processor status %s", ErrCaptureFailed, orderID, result.Status)
	default:
		s.logger.Error("unrecognized processor status",
			zap.String("op", gateway.OpCapture),
			zap.String("order_id", orderID),
			zap.String("status", string(result.Status)),
			zap.String("raw", result.Raw))
		return false, &ProtocolError{Op: gateway.OpCapture, OrderID: orderID, Status: result.Status, Raw: result.Raw}
	}

	if err := s.orders.Save(ctx, order.SetStatus(domain.OrderStatusAcceptedPayment)); err != nil {
		return false, fmt.Errorf("save status for order %s: %w", orderID, err)
	}
	if err := s.orders.Save(ctx, order.SetTransactionID(result.TransactionID).SetCaptured(true)); err != nil {
		return false, fmt.Errorf("save transaction for order %s: %w", orderID, err)
	}

	s.logger.Info("payment captured",
		zap.String("order_id", orderID),
		zap.String("transaction_id", order.TransactionID))

	event := newEvent(domain.EventPaymentCaptured, order)
	event.Amount = &order.TotalPrice
	event.ProcessorAmount = result.Amount
	publish(ctx, s.events, s.logger, event)

	return true, nil
}
