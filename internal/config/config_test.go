package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GATEWAY_PROCESSOR_MODE", ProcessorMock)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sample", cfg.Gateway.Name)
	assert.True(t, cfg.Gateway.SandboxMode)
	assert.True(t, cfg.Gateway.CaptureNow())
	assert.Equal(t, "http://sandbox.sampleapi.com", cfg.Gateway.Endpoint())
	assert.Equal(t, "USD", cfg.Store.CurrentCurrency())
	assert.Equal(t, "US", cfg.Store.CurrentCountry())
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_LiveEndpointAndAuthorizeOnly(t *testing.T) {
	t.Setenv("GATEWAY_SANDBOX_MODE", "0")
	t.Setenv("GATEWAY_PAYMENT_CAPTURE", "authorize")
	t.Setenv("GATEWAY_ACCOUNT_NUMBER", "acct-1")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://sampleapi.com", cfg.Gateway.Endpoint())
	assert.False(t, cfg.Gateway.CaptureNow())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_HTTPModeRequiresAccountNumber(t *testing.T) {
	t.Setenv("GATEWAY_PROCESSOR_MODE", ProcessorHTTP)
	t.Setenv("GATEWAY_ACCOUNT_NUMBER", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SettingsFileOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
account_number: "from-file"
sandbox_mode: false
payment_capture: authorize
api_timeout: 3s
`), 0o600))

	t.Setenv("GATEWAY_ACCOUNT_NUMBER", "from-env")
	t.Setenv("GATEWAY_SETTINGS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Gateway.AccountNumber)
	assert.False(t, cfg.Gateway.SandboxMode)
	assert.Equal(t, CaptureAuthorize, cfg.Gateway.PaymentCapture)
	assert.Equal(t, 3*time.Second, cfg.Gateway.APITimeout)
	// Untouched by the file.
	assert.Equal(t, "sample", cfg.Gateway.Name)
}

func TestGatewayConfig_Lookup(t *testing.T) {
	g := GatewayConfig{AccountNumber: "acct", SandboxMode: true, PaymentCapture: CaptureAuthorize}

	v, ok := g.Lookup("account_number")
	assert.True(t, ok)
	assert.Equal(t, "acct", v)

	v, ok = g.Lookup("sandbox_mode")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = g.Lookup("unknown")
	assert.False(t, ok)
}

func TestGatewayConfig_ValidateRejectsUnknownCaptureMode(t *testing.T) {
	g := GatewayConfig{PaymentCapture: "later", ProcessorMode: ProcessorMock, APITimeout: time.Second}
	assert.Error(t, g.Validate())
}
