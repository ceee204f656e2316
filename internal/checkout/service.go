package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anayakapoor/luxethreads-backend/internal/cart"
	"github.com/anayakapoor/luxethreads-backend/internal/checkout/pricing"
	"github.com/anayakapoor/luxethreads-backend/internal/orders"
	"github.com/anayakapoor/luxethreads-backend/internal/payments"
	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	pkgerrors "github.com/anayakapoor/luxethreads-backend/pkg/errors"
	"github.com/anayakapoor/luxethreads-backend/pkg/metrics"
)

// Attempt result labels reported to the checkout metrics.
const (
	attemptSuccess       = "success"
	attemptPaymentFailed = "payment_failed"
	attemptInvalidCart   = "invalid_cart"
	attemptStockConflict = "stock_conflict"
	attemptError         = "error"
)

// Service executes checkout orchestration.
type Service interface {
	Preview(ctx context.Context, userID uuid.UUID) (*PreviewDTO, error)
	Execute(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error)
}

type cartService interface {
	Validate(ctx context.Context, userID uuid.UUID) (*cart.ValidationResult, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type orderService interface {
	Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error)
	Pay(ctx context.Context, orderID, userID uuid.UUID, card *payments.CardDetails) (*orders.PaymentResultDTO, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	carts   cartService
	orders  orderService
	users   userLoader
	pricing *pricing.Engine
	metrics *metrics.CheckoutMetrics
	now     func() time.Time
}

// NewService builds the checkout service. Metrics may be nil.
func NewService(
	carts cartService,
	orderSvc orderService,
	users userLoader,
	engine *pricing.Engine,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	return &service{
		carts:   carts,
		orders:  orderSvc,
		users:   users,
		pricing: engine,
		metrics: checkoutMetrics,
		now:     time.Now,
	}, nil
}

// Preview validates the cart and prices it against the user's current
// loyalty tier without touching stock or creating anything.
func (s *service) Preview(ctx context.Context, userID uuid.UUID) (*PreviewDTO, error) {
	validation, err := s.carts.Validate(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	totals := s.pricing.Compute(validation.Subtotal, user.LoyaltyScore)
	return &PreviewDTO{
		Items:        validation.Valid,
		InvalidItems: validation.Invalid,
		ItemCount:    validation.ItemCount,
		Totals:       totals,
		LoyaltyScore: user.LoyaltyScore,
		PointsToEarn: pricing.LoyaltyPointsEarned(totals.FinalAmount),
	}, nil
}

// Execute runs the full checkout: validate the cart, price it, create the
// order (which reserves stock), then attempt payment. The cart is cleared
// only after a successful payment; a failed attempt leaves both the order
// and the cart in place so the shopper can retry.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", req.PaymentMethod))
	}

	validation, err := s.carts.Validate(ctx, userID)
	if err != nil {
		s.metrics.IncAttempt(attemptInvalidCart)
		return nil, err
	}
	// Blocked lines are reported but only an all-invalid cart stops the
	// checkout; the valid subset is purchasable on its own.
	if len(validation.Valid) == 0 {
		s.metrics.IncAttempt(attemptInvalidCart)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "no items in your cart are available for checkout").
			WithDetails(validation.Invalid)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.metrics.IncAttempt(attemptError)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	address := strings.TrimSpace(req.ShippingAddress)
	if address == "" && user.Address != nil {
		address = strings.TrimSpace(*user.Address)
	}
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}

	// Billing falls back to the shipping address when not given separately.
	billing := strings.TrimSpace(req.BillingAddress)
	if billing == "" {
		billing = address
	}

	var notes *string
	if trimmed := strings.TrimSpace(req.Notes); trimmed != "" {
		notes = &trimmed
	}

	totals := s.pricing.Compute(validation.Subtotal, user.LoyaltyScore)

	lines := make([]orders.LineInput, 0, len(validation.Valid))
	for _, item := range validation.Valid {
		lines = append(lines, orders.LineInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	order, err := s.orders.Create(ctx, orders.CreateOrderInput{
		UserID:          userID,
		Items:           lines,
		Totals:          totals,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: address,
		BillingAddress:  billing,
		Notes:           notes,
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			s.metrics.IncAttempt(attemptStockConflict)
		} else {
			s.metrics.IncAttempt(attemptError)
		}
		return nil, err
	}
	s.metrics.ObserveOrderValue(totals.FinalAmount.InexactFloat64())

	start := s.now()
	payment, err := s.orders.Pay(ctx, order.ID, userID, req.Card)
	s.metrics.ObserveGatewayLatency(s.now().Sub(start))
	if err != nil {
		// The order exists and stays payable through the orders API.
		s.metrics.IncAttempt(attemptError)
		return nil, err
	}
	s.metrics.IncGatewayOutcome(payment.Status)

	if payment.Success {
		if err := s.carts.Clear(ctx, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		s.metrics.IncAttempt(attemptSuccess)
	} else {
		s.metrics.IncAttempt(attemptPaymentFailed)
	}

	return &CheckoutResult{
		Order:        payment.Order,
		Payment:      payment,
		InvalidItems: validation.Invalid,
	}, nil
}
