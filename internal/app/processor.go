package app

import (
	"paygate/internal/config"
	"paygate/internal/gateway"
)

// NewProcessorClient selects the processor implementation for the configured mode.
func NewProcessorClient(cfg config.GatewayConfig) gateway.Client {
	if cfg.ProcessorMode == config.ProcessorMock {
		return gateway.NewMockClient()
	}
	return gateway.NewHTTPClient(gateway.HTTPOptions{
		BaseURL:           cfg.Endpoint(),
		AccountNumber:     cfg.AccountNumber,
		MerchantProfileID: cfg.MerchantProfileID,
		Timeout:           cfg.APITimeout,
	})
}
