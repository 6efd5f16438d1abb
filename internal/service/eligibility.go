package service

import "strings"

// Supported store settings.
const (
	supportedCurrency = "USD"
	supportedCountry  = "US"
)

// EligibilityChecker reports the store's active currency and country.
type EligibilityChecker interface {
	CurrentCurrency() string
	CurrentCountry() string
}

// IsEligible reports whether the gateway can be offered for a store
// selling in currency from country.
func IsEligible(currency, country string) bool {
	return strings.EqualFold(strings.TrimSpace(currency), supportedCurrency) &&
		strings.EqualFold(strings.TrimSpace(country), supportedCountry)
}
