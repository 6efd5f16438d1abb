package tests

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"paygate/internal/domain"
	"paygate/internal/metrics"
	"paygate/internal/redis"
	"paygate/internal/service"
)

const testGateway = "sample"

type harness struct {
	orders    *MockOrderRepository
	client    *MockClient
	publisher *MockPublisher
	journal   *service.LocalJournal
	metrics   *metrics.Metrics

	transactions *service.TransactionService
	refunds      *service.RefundService
	operations   *service.OperationsService
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithLocker(t, service.NewLocalLocker(0))
}

func newHarnessWithLocker(t *testing.T, locker redis.OrderLocker) *harness {
	t.Helper()

	h := &harness{
		orders:    NewMockOrderRepository(),
		client:    NewMockClient(),
		publisher: NewMockPublisher(),
		journal:   service.NewLocalJournal(),
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	logger := zap.NewNop()

	h.transactions = service.NewTransactionService(testGateway, h.orders, h.client, locker, h.journal, h.publisher, logger)
	h.refunds = service.NewRefundService(h.orders, h.client, locker, h.journal, h.publisher, h.metrics, logger)
	h.operations = service.NewOperationsService(h.journal, logger)
	return h
}

func usd(amount string) domain.Money {
	return domain.MustParseMoney(amount, "USD")
}

// newOrder returns an unpaid sample-gateway order.
func newOrder(id, total string) *domain.Order {
	return &domain.Order{
		ID:            id,
		Gateway:       testGateway,
		TotalPrice:    usd(total),
		TotalRefunded: usd("0"),
		Status:        domain.OrderStatusAwaitingPayment,
	}
}

// paidOrder returns a captured order ready for refunds.
func paidOrder(id, total string) *domain.Order {
	order := newOrder(id, total)
	order.Status = domain.OrderStatusAcceptedPayment
	order.TransactionID = "txn-" + id
	order.Token = "tok-" + id
	order.Captured = true
	return order
}
