package payments

import (
	"github.com/shopspring/decimal"

	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
)

// Outcome is the terminal result of one simulated gateway call.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeDeclined Outcome = "declined"
	OutcomeTimeout  Outcome = "timeout"
	OutcomeRefunded Outcome = "refunded"
	OutcomeFailed   Outcome = "failed"
)

// CardDetails carries the card fields required for card payments.
type CardDetails struct {
	Number      string `json:"card_number" validate:"required"`
	CVV         string `json:"cvv" validate:"required"`
	ExpiryMonth int    `json:"expiry_month" validate:"required"`
	ExpiryYear  int    `json:"expiry_year" validate:"required"`
	HolderName  string `json:"holder_name,omitempty"`
}

// ChargeInput is one payment attempt against the gateway.
type ChargeInput struct {
	Amount decimal.Decimal
	Method enums.PaymentMethod
	Card   *CardDetails
}

// ChargeResult reports the gateway's decision. A declined or timed-out
// charge is a result, not an error; errors are reserved for the gateway
// itself being unusable.
type ChargeResult struct {
	Outcome       Outcome `json:"outcome"`
	Message       string  `json:"message"`
	TransactionID string  `json:"transaction_id,omitempty"`
}

// Approved reports whether the charge settled.
func (r ChargeResult) Approved() bool {
	return r.Outcome == OutcomeSuccess
}

// RefundResult reports the outcome of a refund attempt.
type RefundResult struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`
}

// Refunded reports whether the refund settled.
func (r RefundResult) Refunded() bool {
	return r.Outcome == OutcomeRefunded
}

// MethodInfo describes one supported payment method for the storefront.
type MethodInfo struct {
	Method       enums.PaymentMethod `json:"method"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Icon         string              `json:"icon"`
	Currencies   []string            `json:"supported_currencies"`
	MinAmount    decimal.Decimal     `json:"min_amount"`
	MaxAmount    decimal.Decimal     `json:"max_amount"`
	RequiresCard bool                `json:"requires_card"`
}
