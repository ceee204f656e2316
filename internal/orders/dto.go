package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anayakapoor/luxethreads-backend/internal/checkout/pricing"
	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
	"github.com/anayakapoor/luxethreads-backend/pkg/pagination"
)

// OrderItemDTO is one purchased line as snapshotted at checkout.
type OrderItemDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderDTO is the transport shape for order reads.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	UserID          uuid.UUID           `json:"user_id"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	TransactionID   *string             `json:"transaction_id,omitempty"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Discount        decimal.Decimal     `json:"discount"`
	Tax             decimal.Decimal     `json:"tax"`
	ShippingFee     decimal.Decimal     `json:"shipping_fee"`
	FinalAmount     decimal.Decimal     `json:"final_amount"`
	ShippingAddress string              `json:"shipping_address"`
	BillingAddress  string              `json:"billing_address"`
	Notes           *string             `json:"notes,omitempty"`
	Items           []OrderItemDTO      `json:"items"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// LineInput is one validated cart line entering order creation.
type LineInput struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// CreateOrderInput bundles everything needed to persist a new order.
type CreateOrderInput struct {
	UserID          uuid.UUID
	Items           []LineInput
	Totals          pricing.Totals
	PaymentMethod   enums.PaymentMethod
	ShippingAddress string
	BillingAddress  string
	Notes           *string
}

// PaymentResultDTO reports one payment attempt against an order.
type PaymentResultDTO struct {
	Success       bool      `json:"success"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	Order         *OrderDTO `json:"order"`
}

// CancelResultDTO reports a cancellation, including any refund outcome.
type CancelResultDTO struct {
	Order        *OrderDTO        `json:"order"`
	Refunded     bool             `json:"refunded"`
	RefundAmount *decimal.Decimal `json:"refund_amount,omitempty"`
	Message      string           `json:"message,omitempty"`
}

// ListInput pages a user's order history.
type ListInput struct {
	UserID     uuid.UUID
	Pagination pagination.Params
}

// AdminListInput pages the full order book with optional filters.
type AdminListInput struct {
	Status     *enums.OrderStatus
	UserID     *uuid.UUID
	Pagination pagination.Params
}

// ListResult is one page of orders plus the next cursor.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FromModel converts a persistence model into the transport shape.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, OrderItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}
	return &OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		TransactionID:   o.TransactionID,
		TotalAmount:     o.TotalAmount,
		Discount:        o.Discount,
		Tax:             o.Tax,
		ShippingFee:     o.ShippingFee,
		FinalAmount:     o.FinalAmount,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Notes:           o.Notes,
		Items:           items,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
