package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anayakapoor/luxethreads-backend/pkg/config"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
)

func fixedClock() time.Time {
	return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
}

func newTestGateway(t *testing.T, roll float64) *SimulatedGateway {
	t.Helper()
	g, err := NewSimulatedGateway(config.GatewayConfig{
		SuccessRate: 0.85,
		DeclineRate: 0.10,
		RefundRate:  0.95,
	}, WithRand(func() float64 { return roll }), WithClock(fixedClock))
	require.NoError(t, err)
	return g
}

func validCard() *CardDetails {
	return &CardDetails{
		Number:      "4111111111111111",
		CVV:         "123",
		ExpiryMonth: 12,
		ExpiryYear:  2030,
	}
}

func TestChargeSuccess(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, 0.5)
	result, err := g.Charge(context.Background(), ChargeInput{
		Amount: decimal.RequireFromString("1306.50"),
		Method: enums.PaymentMethodCreditCard,
		Card:   validCard(),
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.True(t, result.Approved())
	assert.True(t, strings.HasPrefix(result.TransactionID, "TXN-20260315-"), "got %s", result.TransactionID)
	assert.Len(t, result.TransactionID, len("TXN-20260315-")+8)
}

func TestChargeDeclinedStillCarriesTransactionID(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, 0.90)
	result, err := g.Charge(context.Background(), ChargeInput{
		Amount: decimal.RequireFromString("100.00"),
		Method: enums.PaymentMethodUPI,
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeDeclined, result.Outcome)
	assert.False(t, result.Approved())
	assert.NotEmpty(t, result.TransactionID)
	assert.NotEmpty(t, result.Message)
}

func TestChargeTimeout(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, 0.99)
	result, err := g.Charge(context.Background(), ChargeInput{
		Amount: decimal.RequireFromString("100.00"),
		Method: enums.PaymentMethodWallet,
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeTimeout, result.Outcome)
	assert.NotEmpty(t, result.TransactionID)
}

func TestChargeValidationFailures(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, 0.0)
	ctx := context.Background()

	cases := []struct {
		name    string
		input   ChargeInput
		message string
	}{
		{
			name:    "non-positive amount",
			input:   ChargeInput{Amount: decimal.Zero, Method: enums.PaymentMethodUPI},
			message: "Invalid payment amount",
		},
		{
			name:    "unsupported method",
			input:   ChargeInput{Amount: decimal.NewFromInt(100), Method: enums.PaymentMethod("cheque")},
			message: "Unsupported payment method",
		},
		{
			name:    "below method minimum",
			input:   ChargeInput{Amount: decimal.RequireFromString("5.00"), Method: enums.PaymentMethodCreditCard, Card: validCard()},
			message: "out of bounds",
		},
		{
			name:    "card method without card",
			input:   ChargeInput{Amount: decimal.NewFromInt(100), Method: enums.PaymentMethodDebitCard},
			message: "Card details required",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result, err := g.Charge(ctx, tc.input)
			require.NoError(t, err)
			assert.Equal(t, OutcomeFailed, result.Outcome)
			assert.Contains(t, result.Message, tc.message)
			assert.Empty(t, result.TransactionID, "rejected charges never get an id")
		})
	}
}

func TestValidateCard(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, 0.0)

	cases := []struct {
		name    string
		mutate  func(*CardDetails)
		message string
	}{
		{"short number", func(c *CardDetails) { c.Number = "4111" }, "Invalid card number format"},
		{"alpha number", func(c *CardDetails) { c.Number = "4111abcd11111111" }, "Invalid card number format"},
		{"bad month", func(c *CardDetails) { c.ExpiryMonth = 13 }, "Invalid expiry month"},
		{"expired year", func(c *CardDetails) { c.ExpiryYear = 2025 }, "Card has expired"},
		{"expired month this year", func(c *CardDetails) { c.ExpiryYear = 2026; c.ExpiryMonth = 2 }, "Card has expired"},
		{"short cvv", func(c *CardDetails) { c.CVV = "12" }, "Invalid CVV format"},
		{"long cvv", func(c *CardDetails) { c.CVV = "12345" }, "Invalid CVV format"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			card := validCard()
			tc.mutate(card)
			msg, ok := g.validateCard(*card)
			assert.False(t, ok)
			assert.Equal(t, tc.message, msg)
		})
	}

	t.Run("spaces in number accepted", func(t *testing.T) {
		t.Parallel()
		card := validCard()
		card.Number = "4111 1111 1111 1111"
		_, ok := g.validateCard(*card)
		assert.True(t, ok)
	})
}

func TestRefund(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, 0.5)
	amount := decimal.RequireFromString("688.94")

	result, err := g.Refund(context.Background(), "TXN-20260315-ABCDEF01", amount)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefunded, result.Outcome)
	assert.True(t, result.Refunded())
	assert.Contains(t, result.Message, "688.94")

	bad, err := g.Refund(context.Background(), "not-a-txn", amount)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, bad.Outcome)

	negative, err := g.Refund(context.Background(), "TXN-20260315-ABCDEF01", decimal.NewFromInt(-1))
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, negative.Outcome)
}

func TestRefundFailure(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, 0.99)
	result, err := g.Refund(context.Background(), "TXN-20260315-ABCDEF01", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, result.Outcome)
}

func TestChargeCancelledContext(t *testing.T) {
	t.Parallel()

	g, err := NewSimulatedGateway(config.GatewayConfig{
		SuccessRate:  0.85,
		DeclineRate:  0.10,
		RefundRate:   0.95,
		ProcessDelay: time.Second,
	}, WithRand(func() float64 { return 0 }), WithClock(fixedClock))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.Charge(ctx, ChargeInput{Amount: decimal.NewFromInt(100), Method: enums.PaymentMethodUPI})
	assert.Error(t, err)
}

func TestNewSimulatedGatewayRejectsBadRates(t *testing.T) {
	t.Parallel()

	_, err := NewSimulatedGateway(config.GatewayConfig{SuccessRate: 0.9, DeclineRate: 0.2, RefundRate: 0.95})
	assert.Error(t, err)
}

func TestMethodsCatalog(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, 0)
	methods := g.Methods()
	require.Len(t, methods, 5)

	assert.Equal(t, enums.PaymentMethodCreditCard, methods[0].Method)
	assert.True(t, methods[0].RequiresCard)
	for _, m := range methods {
		assert.True(t, m.MinAmount.LessThan(m.MaxAmount))
	}
}
