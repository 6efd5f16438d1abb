package service

import (
	"context"

	"paygate/internal/config"
	"paygate/internal/domain"
)

// PaymentGateway is the surface a store uses to take payments through one processor.
type PaymentGateway interface {
	Name() string
	Process(ctx context.Context, orderID, token string) (*ProcessResult, error)
	Capture(ctx context.Context, orderID, transactionID string) (bool, error)
	Refund(ctx context.Context, orderID string, req domain.RefundRequest) (*domain.RefundOutcome, error)
	IsEligible() bool
}

// SampleGateway binds the transaction and refund services to the gateway settings.
type SampleGateway struct {
	cfg          config.GatewayConfig
	transactions *TransactionService
	refunds      *RefundService
	store        EligibilityChecker
}

// NewSampleGateway creates a new SampleGateway.
func NewSampleGateway(
	cfg config.GatewayConfig,
	transactions *TransactionService,
	refunds *RefundService,
	store EligibilityChecker,
) *SampleGateway {
	return &SampleGateway{
		cfg:          cfg,
		transactions: transactions,
		refunds:      refunds,
		store:        store,
	}
}

// Name returns the gateway identifier stored on orders.
func (g *SampleGateway) Name() string {
	return g.cfg.Name
}

// Process pays for the order, capturing immediately unless the gateway is
// configured for authorize-only.
func (g *SampleGateway) Process(ctx context.Context, orderID, token string) (*ProcessResult, error) {
	return g.transactions.Process(ctx, orderID, token, g.cfg.CaptureNow())
}

// Capture collects funds for an authorized order.
func (g *SampleGateway) Capture(ctx context.Context, orderID, transactionID string) (bool, error) {
	return g.transactions.Capture(ctx, orderID, transactionID)
}

// Refund returns funds for the order.
func (g *SampleGateway) Refund(ctx context.Context, orderID string, req domain.RefundRequest) (*domain.RefundOutcome, error) {
	return g.refunds.Refund(ctx, orderID, req)
}

// IsEligible reports whether the store settings allow this gateway.
func (g *SampleGateway) IsEligible() bool {
	return IsEligible(g.store.CurrentCurrency(), g.store.CurrentCountry())
}

var _ PaymentGateway = (*SampleGateway)(nil)
