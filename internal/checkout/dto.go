package checkout

import (
	"github.com/anayakapoor/luxethreads-backend/internal/cart"
	"github.com/anayakapoor/luxethreads-backend/internal/checkout/pricing"
	"github.com/anayakapoor/luxethreads-backend/internal/orders"
	"github.com/anayakapoor/luxethreads-backend/internal/payments"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
)

// CheckoutRequest is the payload for executing a checkout.
type CheckoutRequest struct {
	PaymentMethod   enums.PaymentMethod   `json:"payment_method" validate:"required"`
	ShippingAddress string                `json:"shipping_address,omitempty"`
	BillingAddress  string                `json:"billing_address,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	Card            *payments.CardDetails `json:"card,omitempty"`
}

// PreviewDTO shows the shopper what checkout would charge right now.
type PreviewDTO struct {
	Items        []cart.ItemDTO     `json:"items"`
	InvalidItems []cart.InvalidItem `json:"invalid_items,omitempty"`
	ItemCount    int                `json:"item_count"`
	Totals       pricing.Totals     `json:"totals"`
	LoyaltyScore int                `json:"loyalty_score"`
	PointsToEarn int                `json:"points_to_earn"`
}

// CheckoutResult bundles the created order with its first payment attempt.
// Cart lines that could not be purchased are reported, not fatal: the order
// covers the valid subset.
type CheckoutResult struct {
	Order        *orders.OrderDTO         `json:"order"`
	Payment      *orders.PaymentResultDTO `json:"payment"`
	InvalidItems []cart.InvalidItem       `json:"invalid_items,omitempty"`
}
