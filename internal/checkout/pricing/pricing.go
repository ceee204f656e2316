// Package pricing computes order totals from a cart subtotal and the
// shopper's loyalty standing.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/anayakapoor/luxethreads-backend/pkg/config"
)

// Loyalty discount tiers.
var (
	tierGoldThreshold   = 1000
	tierSilverThreshold = 500
	tierGoldRate        = decimal.RequireFromString("0.10")
	tierSilverRate      = decimal.RequireFromString("0.05")
)

// Totals is the monetary breakdown of an order. All values carry two
// decimal places; FinalAmount == (Subtotal - Discount) + Tax + ShippingFee.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	FinalAmount decimal.Decimal `json:"final_amount"`
}

// Engine holds the parsed pricing knobs.
type Engine struct {
	taxRate               decimal.Decimal
	shippingFee           decimal.Decimal
	freeShippingThreshold decimal.Decimal
}

// New parses the configured pricing values once up front.
func New(cfg config.PricingConfig) (*Engine, error) {
	taxRate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rate %q: %w", cfg.TaxRate, err)
	}
	shippingFee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping fee %q: %w", cfg.ShippingFee, err)
	}
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid free shipping threshold %q: %w", cfg.FreeShippingThreshold, err)
	}
	return &Engine{
		taxRate:               taxRate,
		shippingFee:           shippingFee,
		freeShippingThreshold: threshold,
	}, nil
}

// Compute derives the full totals breakdown. Discount comes off the
// subtotal first; tax applies to the discounted amount; shipping is waived
// once the taxable amount clears the free threshold.
func (e *Engine) Compute(subtotal decimal.Decimal, loyaltyScore int) Totals {
	subtotal = subtotal.Round(2)

	discount := subtotal.Mul(discountRate(loyaltyScore)).Round(2)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(e.taxRate).Round(2)

	shipping := e.shippingFee
	if taxable.GreaterThan(e.freeShippingThreshold) {
		shipping = decimal.Zero.Round(2)
	}

	final := taxable.Add(tax).Add(shipping)

	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		Tax:         tax,
		ShippingFee: shipping,
		FinalAmount: final,
	}
}

func discountRate(loyaltyScore int) decimal.Decimal {
	switch {
	case loyaltyScore > tierGoldThreshold:
		return tierGoldRate
	case loyaltyScore > tierSilverThreshold:
		return tierSilverRate
	default:
		return decimal.Zero
	}
}

// LoyaltyPointsEarned is the points accrued for an order: one point per
// whole unit of final amount divided by ten, floored.
func LoyaltyPointsEarned(finalAmount decimal.Decimal) int {
	return int(finalAmount.Div(decimal.NewFromInt(10)).IntPart())
}
