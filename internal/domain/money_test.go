package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_ArithmeticIsExact(t *testing.T) {
	a := MustParseMoney("0.10", "USD")
	b := MustParseMoney("0.20", "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(MustParseMoney("0.30", "USD")))

	// Operands are unchanged.
	assert.Equal(t, "0.10 USD", a.String())
	assert.Equal(t, "0.20 USD", b.String())
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	usd := MustParseMoney("1.00", "USD")
	eur := MustParseMoney("1.00", "EUR")

	_, err := usd.Add(eur)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))

	_, err = usd.Cmp(eur)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))
}

func TestMoney_MinorUnits(t *testing.T) {
	m := MustParseMoney("40.00", "usd")
	assert.Equal(t, int64(4000), m.MinorUnits())
	assert.Equal(t, "USD", m.Currency())

	back, err := FromMinorUnits(4000, "USD")
	require.NoError(t, err)
	assert.True(t, back.Equal(m))
}

func TestMoney_InvalidInput(t *testing.T) {
	_, err := ParseMoney("abc", "USD")
	assert.Error(t, err)

	_, err = ParseMoney("1.00", "")
	assert.True(t, errors.Is(err, ErrInvalidCurrency))
}

func TestMoney_RejectsSubMinorUnits(t *testing.T) {
	for _, amount := range []string{"0.004", "10.001", "-0.005"} {
		_, err := ParseMoney(amount, "USD")
		assert.ErrorIs(t, err, ErrInvalidPrecision, amount)
	}

	// Trailing zeros beyond cents are still whole minor units.
	m, err := ParseMoney("40.000", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), m.MinorUnits())
}

func TestMoney_JSON(t *testing.T) {
	m := MustParseMoney("12.5", "USD")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12.50","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(m))
}

func TestOrder_RemainingRefundable(t *testing.T) {
	order := &Order{
		TotalPrice:    MustParseMoney("100.00", "USD"),
		TotalRefunded: MustParseMoney("40.00", "USD"),
	}

	remaining, err := order.RemainingRefundable()
	require.NoError(t, err)
	assert.Equal(t, "60.00 USD", remaining.String())
	assert.False(t, order.FullyRefunded())

	order.SetTotalRefunded(MustParseMoney("100", "USD"))
	assert.True(t, order.FullyRefunded())
}

func TestOrderStatus_Payable(t *testing.T) {
	assert.True(t, OrderStatusAwaitingPayment.Payable())
	assert.True(t, OrderStatusPaymentDeclined.Payable())
	assert.False(t, OrderStatusAcceptedPayment.Payable())
	assert.False(t, OrderStatusOrderReceived.Payable())
	assert.False(t, OrderStatusRefunded.Payable())
}
