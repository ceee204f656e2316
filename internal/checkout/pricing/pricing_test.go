package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anayakapoor/luxethreads-backend/pkg/config"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := New(config.PricingConfig{
		TaxRate:               "0.08875",
		ShippingFee:           "199.00",
		FreeShippingThreshold: "1000.00",
	})
	require.NoError(t, err)
	return engine
}

func TestComputeFreeShippingNoDiscount(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	totals := engine.Compute(decimal.RequireFromString("1200.00"), 0)

	assert.True(t, totals.Discount.IsZero(), "no discount below silver tier")
	assert.Equal(t, "106.50", totals.Tax.StringFixed(2))
	assert.True(t, totals.ShippingFee.IsZero(), "taxable amount above threshold ships free")
	assert.Equal(t, "1306.50", totals.FinalAmount.StringFixed(2))
}

func TestComputeGoldDiscountWithShipping(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	totals := engine.Compute(decimal.RequireFromString("500.00"), 1200)

	assert.Equal(t, "50.00", totals.Discount.StringFixed(2))
	// 450 * 0.08875 = 39.9375 rounds half-up to 39.94
	assert.Equal(t, "39.94", totals.Tax.StringFixed(2))
	assert.Equal(t, "199.00", totals.ShippingFee.StringFixed(2))
	assert.Equal(t, "688.94", totals.FinalAmount.StringFixed(2))
}

func TestComputeSilverDiscount(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	totals := engine.Compute(decimal.RequireFromString("1000.00"), 501)

	assert.Equal(t, "50.00", totals.Discount.StringFixed(2))
	// taxable 950 does not clear the 1000 threshold
	assert.Equal(t, "199.00", totals.ShippingFee.StringFixed(2))
	assert.Equal(t, "84.31", totals.Tax.StringFixed(2))
	assert.Equal(t, "1233.31", totals.FinalAmount.StringFixed(2))
}

func TestComputeTierBoundaries(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	subtotal := decimal.RequireFromString("100.00")

	assert.True(t, engine.Compute(subtotal, 500).Discount.IsZero(), "500 is not silver")
	assert.Equal(t, "5.00", engine.Compute(subtotal, 501).Discount.StringFixed(2))
	assert.Equal(t, "5.00", engine.Compute(subtotal, 1000).Discount.StringFixed(2))
	assert.Equal(t, "10.00", engine.Compute(subtotal, 1001).Discount.StringFixed(2))
}

func TestComputeIdentityHolds(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	cases := []struct {
		subtotal string
		loyalty  int
	}{
		{"0.01", 0},
		{"999.99", 750},
		{"1000.01", 2000},
		{"49.50", 501},
	}

	for _, tc := range cases {
		totals := engine.Compute(decimal.RequireFromString(tc.subtotal), tc.loyalty)
		expected := totals.Subtotal.Sub(totals.Discount).Add(totals.Tax).Add(totals.ShippingFee)
		assert.True(t, totals.FinalAmount.Equal(expected),
			"subtotal=%s loyalty=%d: final %s != derived %s", tc.subtotal, tc.loyalty, totals.FinalAmount, expected)
	}
}

func TestLoyaltyPointsEarned(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 130, LoyaltyPointsEarned(decimal.RequireFromString("1306.50")))
	assert.Equal(t, 68, LoyaltyPointsEarned(decimal.RequireFromString("688.94")))
	assert.Equal(t, 0, LoyaltyPointsEarned(decimal.RequireFromString("9.99")))
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := New(config.PricingConfig{TaxRate: "not-a-number", ShippingFee: "199.00", FreeShippingThreshold: "1000.00"})
	assert.Error(t, err)
}
