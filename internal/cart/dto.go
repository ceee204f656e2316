package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemRequest sets the line quantity outright.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// ItemDTO is one cart line joined with its product snapshot.
type ItemDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	ImageURL    *string         `json:"image_url,omitempty"`
	AddedAt     time.Time       `json:"added_at"`
}

// CartDTO is the full cart view returned to the storefront.
type CartDTO struct {
	Items     []ItemDTO       `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

// InvalidItem describes a cart line that cannot be purchased right now.
type InvalidItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
	Reason      string    `json:"reason"`
}

// Invalid item reasons.
const (
	ReasonProductMissing    = "product_not_found"
	ReasonProductInactive   = "product_inactive"
	ReasonInsufficientStock = "insufficient_stock"
)

// ValidationResult partitions cart lines into purchasable and blocked.
// Subtotal and ItemCount cover the purchasable lines only.
type ValidationResult struct {
	Valid     []ItemDTO       `json:"valid_items"`
	Invalid   []InvalidItem   `json:"invalid_items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

// AllValid reports whether every line survived validation.
func (v ValidationResult) AllValid() bool {
	return len(v.Invalid) == 0 && len(v.Valid) > 0
}
