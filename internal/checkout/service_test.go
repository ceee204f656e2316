package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anayakapoor/luxethreads-backend/internal/cart"
	"github.com/anayakapoor/luxethreads-backend/internal/checkout/pricing"
	"github.com/anayakapoor/luxethreads-backend/internal/orders"
	"github.com/anayakapoor/luxethreads-backend/internal/payments"
	"github.com/anayakapoor/luxethreads-backend/pkg/config"
	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
	pkgerrors "github.com/anayakapoor/luxethreads-backend/pkg/errors"
)

type stubCartService struct {
	validation  *cart.ValidationResult
	validateErr error
	cleared     bool
}

func (s *stubCartService) Validate(ctx context.Context, userID uuid.UUID) (*cart.ValidationResult, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return s.validation, nil
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	return nil
}

type stubOrderService struct {
	createInput orders.CreateOrderInput
	createErr   error
	payResult   *orders.PaymentResultDTO
	payErr      error
	paid        bool
}

func (s *stubOrderService) Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	s.createInput = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &orders.OrderDTO{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Status:      enums.OrderStatusProcessing,
		FinalAmount: input.Totals.FinalAmount,
	}, nil
}

func (s *stubOrderService) Pay(ctx context.Context, orderID, userID uuid.UUID, card *payments.CardDetails) (*orders.PaymentResultDTO, error) {
	s.paid = true
	if s.payErr != nil {
		return nil, s.payErr
	}
	return s.payResult, nil
}

type stubUserLoader struct {
	user *models.User
}

func (s *stubUserLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.user, nil
}

func testEngine(t *testing.T) *pricing.Engine {
	t.Helper()
	engine, err := pricing.New(config.PricingConfig{
		TaxRate:               "0.08875",
		ShippingFee:           "199.00",
		FreeShippingThreshold: "1000.00",
	})
	if err != nil {
		t.Fatalf("pricing engine: %v", err)
	}
	return engine
}

func validCart(productID uuid.UUID) *cart.ValidationResult {
	price := decimal.RequireFromString("600.00")
	return &cart.ValidationResult{
		Valid: []cart.ItemDTO{
			{
				ProductID:   productID,
				ProductName: "Silk Scarf",
				UnitPrice:   price,
				Quantity:    2,
				LineTotal:   price.Mul(decimal.NewFromInt(2)),
			},
		},
		Subtotal:  decimal.RequireFromString("1200.00"),
		ItemCount: 2,
	}
}

func newCheckoutService(t *testing.T, carts *stubCartService, orderSvc *stubOrderService, user *models.User) Service {
	t.Helper()
	svc, err := NewService(carts, orderSvc, &stubUserLoader{user: user}, testEngine(t), nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestExecuteSuccessClearsCart(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	productID := uuid.New()
	carts := &stubCartService{validation: validCart(productID)}
	txn := "TXN-20260315-AB12CD34"
	orderSvc := &stubOrderService{payResult: &orders.PaymentResultDTO{
		Success:       true,
		Status:        "success",
		TransactionID: &txn,
		Order:         &orders.OrderDTO{Status: enums.OrderStatusConfirmed},
	}}
	svc := newCheckoutService(t, carts, orderSvc, &models.User{ID: userID, LoyaltyScore: 0})

	result, err := svc.Execute(context.Background(), userID, CheckoutRequest{
		PaymentMethod:   enums.PaymentMethodUPI,
		ShippingAddress: "12 Linen Lane",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !result.Payment.Success {
		t.Fatal("expected successful payment")
	}
	if !carts.cleared {
		t.Fatal("cart must be cleared after a successful payment")
	}
	// 1200 subtotal, no discount, 106.50 tax, free shipping.
	if !orderSvc.createInput.Totals.FinalAmount.Equal(decimal.RequireFromString("1306.50")) {
		t.Fatalf("unexpected final amount %s", orderSvc.createInput.Totals.FinalAmount)
	}
	if !orderSvc.createInput.Totals.ShippingFee.IsZero() {
		t.Fatal("expected free shipping above the threshold")
	}
	if orderSvc.createInput.BillingAddress != "12 Linen Lane" {
		t.Fatalf("billing must fall back to the shipping address, got %q", orderSvc.createInput.BillingAddress)
	}
}

func TestExecuteAppliesLoyaltyDiscount(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	carts := &stubCartService{validation: validCart(uuid.New())}
	orderSvc := &stubOrderService{payResult: &orders.PaymentResultDTO{Success: true, Status: "success"}}
	svc := newCheckoutService(t, carts, orderSvc, &models.User{ID: userID, LoyaltyScore: 1200})

	if _, err := svc.Execute(context.Background(), userID, CheckoutRequest{
		PaymentMethod:   enums.PaymentMethodWallet,
		ShippingAddress: "12 Linen Lane",
	}); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !orderSvc.createInput.Totals.Discount.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("expected gold-tier discount got %s", orderSvc.createInput.Totals.Discount)
	}
}

func TestExecutePaymentFailureKeepsCart(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	carts := &stubCartService{validation: validCart(uuid.New())}
	orderSvc := &stubOrderService{payResult: &orders.PaymentResultDTO{
		Success: false,
		Status:  "declined",
		Message: "Insufficient funds",
		Order:   &orders.OrderDTO{Status: enums.OrderStatusProcessing},
	}}
	svc := newCheckoutService(t, carts, orderSvc, &models.User{ID: userID})

	result, err := svc.Execute(context.Background(), userID, CheckoutRequest{
		PaymentMethod:   enums.PaymentMethodCreditCard,
		ShippingAddress: "12 Linen Lane",
		Card:            &payments.CardDetails{Number: "4111111111111111", CVV: "123", ExpiryMonth: 12, ExpiryYear: 2030},
	})
	if err != nil {
		t.Fatalf("a declined payment is a result, not an error: %v", err)
	}
	if result.Payment.Success {
		t.Fatal("expected failed payment")
	}
	if carts.cleared {
		t.Fatal("cart must survive a failed payment")
	}
	if result.Order.Status != enums.OrderStatusProcessing {
		t.Fatal("order stays processing for retry")
	}
}

func TestExecutePartialCartChecksOutValidSubset(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	productID := uuid.New()
	validation := validCart(productID)
	validation.Invalid = []cart.InvalidItem{
		{ProductID: uuid.New(), ProductName: "Cashmere Throw", Requested: 3, Available: 1, Reason: cart.ReasonInsufficientStock},
	}
	carts := &stubCartService{validation: validation}
	orderSvc := &stubOrderService{payResult: &orders.PaymentResultDTO{
		Success: true,
		Status:  "success",
		Order:   &orders.OrderDTO{Status: enums.OrderStatusConfirmed},
	}}
	svc := newCheckoutService(t, carts, orderSvc, &models.User{ID: userID})

	result, err := svc.Execute(context.Background(), userID, CheckoutRequest{
		PaymentMethod:   enums.PaymentMethodUPI,
		ShippingAddress: "12 Linen Lane",
	})
	if err != nil {
		t.Fatalf("a blocked line must not stop the valid lines: %v", err)
	}
	if len(orderSvc.createInput.Items) != 1 || orderSvc.createInput.Items[0].ProductID != productID {
		t.Fatalf("order must cover exactly the valid lines, got %v", orderSvc.createInput.Items)
	}
	if len(result.InvalidItems) != 1 || result.InvalidItems[0].ProductName != "Cashmere Throw" {
		t.Fatalf("blocked lines must be reported, got %v", result.InvalidItems)
	}
	if !carts.cleared {
		t.Fatal("cart must be cleared after a successful payment")
	}
}

func TestExecuteAllInvalidCartRejected(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	carts := &stubCartService{validation: &cart.ValidationResult{
		Invalid: []cart.InvalidItem{
			{ProductID: uuid.New(), ProductName: "Cashmere Throw", Requested: 3, Available: 1, Reason: cart.ReasonInsufficientStock},
		},
	}}
	orderSvc := &stubOrderService{}
	svc := newCheckoutService(t, carts, orderSvc, &models.User{ID: userID})

	_, err := svc.Execute(context.Background(), userID, CheckoutRequest{
		PaymentMethod:   enums.PaymentMethodUPI,
		ShippingAddress: "12 Linen Lane",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict got %s", typed.Code())
	}
	if typed.Details() == nil {
		t.Fatal("invalid items must be attached as details")
	}
	if orderSvc.paid {
		t.Fatal("no payment expected for an invalid cart")
	}
}

func TestExecuteFallsBackToProfileAddress(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	address := "7 Velvet Row"
	carts := &stubCartService{validation: validCart(uuid.New())}
	orderSvc := &stubOrderService{payResult: &orders.PaymentResultDTO{Success: true, Status: "success"}}
	svc := newCheckoutService(t, carts, orderSvc, &models.User{ID: userID, Address: &address})

	if _, err := svc.Execute(context.Background(), userID, CheckoutRequest{
		PaymentMethod: enums.PaymentMethodNetBanking,
	}); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if orderSvc.createInput.ShippingAddress != address {
		t.Fatalf("expected profile address got %q", orderSvc.createInput.ShippingAddress)
	}
}

func TestExecuteNoAddressRejected(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	carts := &stubCartService{validation: validCart(uuid.New())}
	svc := newCheckoutService(t, carts, &stubOrderService{}, &models.User{ID: userID})

	_, err := svc.Execute(context.Background(), userID, CheckoutRequest{PaymentMethod: enums.PaymentMethodUPI})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestPreviewPricesAgainstLoyaltyTier(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	price := decimal.RequireFromString("250.00")
	carts := &stubCartService{validation: &cart.ValidationResult{
		Valid: []cart.ItemDTO{
			{ProductID: uuid.New(), ProductName: "Silk Scarf", UnitPrice: price, Quantity: 2, LineTotal: price.Mul(decimal.NewFromInt(2))},
		},
		Subtotal:  decimal.RequireFromString("500.00"),
		ItemCount: 2,
	}}
	svc := newCheckoutService(t, carts, &stubOrderService{}, &models.User{ID: userID, LoyaltyScore: 1200})

	preview, err := svc.Preview(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	// 500 - 10% = 450 taxable, 39.94 tax, 199 shipping.
	if !preview.Totals.FinalAmount.Equal(decimal.RequireFromString("688.94")) {
		t.Fatalf("unexpected final amount %s", preview.Totals.FinalAmount)
	}
	if preview.PointsToEarn != 68 {
		t.Fatalf("expected 68 points got %d", preview.PointsToEarn)
	}
	if preview.LoyaltyScore != 1200 {
		t.Fatalf("expected loyalty score surfaced got %d", preview.LoyaltyScore)
	}
	if preview.ItemCount != 2 {
		t.Fatalf("expected item count 2 got %d", preview.ItemCount)
	}
}
