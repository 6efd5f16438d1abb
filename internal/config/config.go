package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Kafka    KafkaConfig
	Log      LogConfig
	Gateway  GatewayConfig
	Store    StoreConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// LockTTL bounds how long a per-order lock survives a crashed holder.
	LockTTL time.Duration
	// LockWait bounds how long an operation waits for a busy order.
	LockWait time.Duration
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// KafkaConfig holds the event sink configuration. Empty Brokers disables Kafka.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string
}

// Capture modes for GatewayConfig.PaymentCapture.
const (
	CaptureImmediate = ""
	CaptureAuthorize = "authorize"
)

// Processor modes for GatewayConfig.ProcessorMode.
const (
	ProcessorHTTP = "http"
	ProcessorMock = "mock"
)

const (
	sandboxEndpoint = "http://sandbox.sampleapi.com"
	liveEndpoint    = "https://sampleapi.com"
)

// GatewayConfig holds the sample gateway settings.
type GatewayConfig struct {
	Name              string        `yaml:"name"`
	AccountNumber     string        `yaml:"account_number"`
	MerchantProfileID string        `yaml:"merchant_profile_id"`
	SandboxMode       bool          `yaml:"sandbox_mode"`
	PaymentCapture    string        `yaml:"payment_capture"`
	Debugging         bool          `yaml:"debugging"`
	APITimeout        time.Duration `yaml:"api_timeout"`
	ProcessorMode     string        `yaml:"processor_mode"`
	// EndpointOverride replaces the sandbox/live endpoint when set.
	EndpointOverride string `yaml:"endpoint"`
}

// Endpoint returns the processor base URL.
func (g GatewayConfig) Endpoint() string {
	if g.EndpointOverride != "" {
		return strings.TrimRight(g.EndpointOverride, "/")
	}
	if g.SandboxMode {
		return sandboxEndpoint
	}
	return liveEndpoint
}

// CaptureNow reports whether payments are captured when the order is placed.
func (g GatewayConfig) CaptureNow() bool {
	return g.PaymentCapture != CaptureAuthorize
}

// Lookup returns a gateway setting by its settings-form key.
func (g GatewayConfig) Lookup(key string) (string, bool) {
	switch key {
	case "account_number":
		return g.AccountNumber, true
	case "merchant_profile_id":
		return g.MerchantProfileID, true
	case "sandbox_mode":
		return boolSetting(g.SandboxMode), true
	case "payment_capture":
		return g.PaymentCapture, true
	case "debugging":
		return boolSetting(g.Debugging), true
	case "api_timeout":
		return g.APITimeout.String(), true
	case "processor_mode":
		return g.ProcessorMode, true
	case "endpoint":
		return g.Endpoint(), true
	default:
		return "", false
	}
}

// Validate checks gateway settings for values the gateway cannot run with.
func (g GatewayConfig) Validate() error {
	if g.PaymentCapture != CaptureImmediate && g.PaymentCapture != CaptureAuthorize {
		return fmt.Errorf("invalid payment_capture %q", g.PaymentCapture)
	}
	if g.ProcessorMode != ProcessorHTTP && g.ProcessorMode != ProcessorMock {
		return fmt.Errorf("invalid processor_mode %q", g.ProcessorMode)
	}
	if g.ProcessorMode == ProcessorHTTP && g.AccountNumber == "" {
		return fmt.Errorf("account_number is required for processor_mode %q", ProcessorHTTP)
	}
	if g.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive")
	}
	return nil
}

// StoreConfig describes the host store's currency and base country.
type StoreConfig struct {
	Currency string
	Country  string
}

// CurrentCurrency returns the store currency code.
func (s StoreConfig) CurrentCurrency() string { return s.Currency }

// CurrentCountry returns the store base country code.
func (s StoreConfig) CurrentCountry() string { return s.Country }

// Load loads configuration from environment variables, then applies the
// optional gateway settings file named by GATEWAY_SETTINGS_FILE.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "paygate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			LockTTL:  getDurationEnv("ORDER_LOCK_TTL", 60*time.Second),
			LockWait: getDurationEnv("ORDER_LOCK_WAIT", 5*time.Second),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "paygate"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Kafka: KafkaConfig{
			Brokers: getListEnv("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "payment.events"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Gateway: GatewayConfig{
			Name:              getEnv("GATEWAY_NAME", "sample"),
			AccountNumber:     getEnv("GATEWAY_ACCOUNT_NUMBER", ""),
			MerchantProfileID: getEnv("GATEWAY_MERCHANT_PROFILE_ID", ""),
			SandboxMode:       getBoolEnv("GATEWAY_SANDBOX_MODE", true),
			PaymentCapture:    getEnv("GATEWAY_PAYMENT_CAPTURE", CaptureImmediate),
			Debugging:         getBoolEnv("GATEWAY_DEBUGGING", false),
			APITimeout:        getDurationEnv("GATEWAY_API_TIMEOUT", 15*time.Second),
			ProcessorMode:     getEnv("GATEWAY_PROCESSOR_MODE", ProcessorHTTP),
			EndpointOverride:  getEnv("GATEWAY_ENDPOINT", ""),
		},
		Store: StoreConfig{
			Currency: strings.ToUpper(getEnv("STORE_CURRENCY", "USD")),
			Country:  strings.ToUpper(getEnv("STORE_COUNTRY", "US")),
		},
	}

	if path := getEnv("GATEWAY_SETTINGS_FILE", ""); path != "" {
		if err := cfg.Gateway.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Gateway.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays settings present in a YAML file onto g.
func (g *GatewayConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read gateway settings: %w", err)
	}
	return g.overlay(data)
}

func (g *GatewayConfig) overlay(data []byte) error {
	// Decoding into the existing struct keeps fields absent from the file.
	if err := yaml.Unmarshal(data, g); err != nil {
		return fmt.Errorf("parse gateway settings: %w", err)
	}
	return nil
}

func boolSetting(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
