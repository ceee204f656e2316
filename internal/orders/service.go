package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/anayakapoor/luxethreads-backend/internal/checkout/pricing"
	"github.com/anayakapoor/luxethreads-backend/internal/payments"
	"github.com/anayakapoor/luxethreads-backend/internal/products"
	"github.com/anayakapoor/luxethreads-backend/internal/users"
	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
	pkgerrors "github.com/anayakapoor/luxethreads-backend/pkg/errors"
)

const orderNumberPrefix = "LUX"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the order lifecycle operations exposed to controllers
// and to the checkout orchestrator.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	Pay(ctx context.Context, orderID, userID uuid.UUID, card *payments.CardDetails) (*PaymentResultDTO, error)
	Cancel(ctx context.Context, orderID, userID uuid.UUID) (*CancelResultDTO, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	AdminList(ctx context.Context, input AdminListInput) (*ListResult, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type service struct {
	tx          txRunner
	repo        Repository
	productRepo products.Repository
	userRepo    users.Repository
	gateway     payments.Gateway
	now         func() time.Time
}

// NewService builds the order service.
func NewService(
	tx txRunner,
	repo Repository,
	productRepo products.Repository,
	userRepo users.Repository,
	gateway payments.Gateway,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		productRepo: productRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create persists a new order: stock is decremented per line inside one
// transaction, so a single out-of-stock line aborts the whole order, and
// loyalty points accrue against the order's final amount.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if strings.TrimSpace(input.BillingAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing address is required")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		for _, line := range input.Items {
			ok, err := productRepo.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("insufficient stock for %s", line.ProductName))
			}
		}

		order, err := s.insertOrder(ctx, tx, input)
		if err != nil {
			return err
		}

		points := pricing.LoyaltyPointsEarned(order.FinalAmount)
		if points > 0 {
			if err := s.userRepo.WithTx(tx).AddLoyaltyPoints(ctx, input.UserID, points); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "accrue loyalty points")
			}
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return FromModel(created), nil
}

// insertOrder writes the order row, retrying once with a fresh order number
// if the generated one collides.
func (s *service) insertOrder(ctx context.Context, tx *gorm.DB, input CreateOrderInput) (*models.Order, error) {
	repo := s.repo.WithTx(tx)
	for attempt := 0; attempt < 2; attempt++ {
		order := s.buildOrder(input)
		created, err := repo.Create(ctx, order)
		if err == nil {
			return created, nil
		}
		if attempt == 0 && isUniqueViolation(err) {
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "order number collision")
}

func (s *service) buildOrder(input CreateOrderInput) *models.Order {
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2),
		})
	}
	return &models.Order{
		UserID:          input.UserID,
		OrderNumber:     s.newOrderNumber(),
		Status:          enums.OrderStatusProcessing,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusPending,
		TotalAmount:     input.Totals.Subtotal,
		Discount:        input.Totals.Discount,
		Tax:             input.Totals.Tax,
		ShippingFee:     input.Totals.ShippingFee,
		FinalAmount:     input.Totals.FinalAmount,
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		BillingAddress:  strings.TrimSpace(input.BillingAddress),
		Notes:           normalizeNotes(input.Notes),
		Items:           items,
	}
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *service) newOrderNumber() string {
	buf := make([]byte, 5)
	_, _ = rand.Read(buf)
	suffix := strings.ToUpper(hex.EncodeToString(buf))
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, s.now().Format("20060102"), suffix)
}

// Pay runs one payment attempt against the gateway and records the outcome.
// A failed attempt leaves the order in processing so the user can retry;
// an already-paid order is rejected rather than charged twice.
func (s *service) Pay(ctx context.Context, orderID, userID uuid.UUID, card *payments.CardDetails) (*PaymentResultDTO, error) {
	order, err := s.loadOwned(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	if order.Status != enums.OrderStatusProcessing {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be paid", order.Status))
	}

	// The gateway call stays outside the DB transaction so a slow processor
	// never holds row locks.
	result, err := s.gateway.Charge(ctx, payments.ChargeInput{
		Amount: order.FinalAmount,
		Method: order.PaymentMethod,
		Card:   card,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "charge payment")
	}

	updates := map[string]any{}
	if result.Approved() {
		updates["payment_status"] = enums.PaymentStatusPaid
		updates["status"] = enums.OrderStatusConfirmed
	} else {
		updates["payment_status"] = enums.PaymentStatusFailed
	}
	if result.TransactionID != "" {
		updates["transaction_id"] = result.TransactionID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(ctx, order.ID, updates)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment outcome")
	}

	updated, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}

	dto := &PaymentResultDTO{
		Success: result.Approved(),
		Status:  string(result.Outcome),
		Message: result.Message,
		Order:   FromModel(updated),
	}
	if result.TransactionID != "" {
		dto.TransactionID = &result.TransactionID
	}
	return dto, nil
}

// Cancel cancels an order the user still can: stock is restored for every
// line and a paid order is refunded through the gateway first. The
// cancellation completes even when the refund is not accepted; the failed
// refund is reported in the result for a support follow-up.
func (s *service) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*CancelResultDTO, error) {
	order, err := s.loadOwned(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Cancellable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
	}

	refunded := false
	message := "order cancelled"
	var refundAmount *decimal.Decimal
	if order.PaymentStatus == enums.PaymentStatusPaid {
		if order.TransactionID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "paid order has no transaction id")
		}
		refund, err := s.gateway.Refund(ctx, *order.TransactionID, order.FinalAmount)
		switch {
		case err != nil:
			message = "order cancelled, the refund could not be processed; please contact support"
		case refund.Refunded():
			refunded = true
			amount := order.FinalAmount
			refundAmount = &amount
			message = fmt.Sprintf("order cancelled, %s refunded to the original payment method",
				order.FinalAmount.StringFixed(2))
		default:
			message = "order cancelled, the refund was not accepted; please contact support"
		}
	}

	if err := s.cancelAndRestock(ctx, order, refunded); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}

	return &CancelResultDTO{
		Order:        FromModel(updated),
		Refunded:     refunded,
		RefundAmount: refundAmount,
		Message:      message,
	}, nil
}

// cancelAndRestock flips the order to cancelled and returns every line's
// quantity to product stock, all in one transaction.
func (s *service) cancelAndRestock(ctx context.Context, order *models.Order, refunded bool) error {
	paymentStatus := enums.PaymentStatusCancelled
	if refunded {
		paymentStatus = enums.PaymentStatusRefunded
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		for _, item := range order.Items {
			if err := productRepo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore stock")
			}
		}
		return s.repo.WithTx(tx).Update(ctx, order.ID, map[string]any{
			"status":         enums.OrderStatusCancelled,
			"payment_status": paymentStatus,
			"cancelled_at":   s.now(),
		})
	})
}

func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	rows, next, err := s.repo.ListByUser(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return toListResult(rows, next), nil
}

func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return FromModel(order), nil
}

func (s *service) AdminList(ctx context.Context, input AdminListInput) (*ListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.Status))
	}
	rows, next, err := s.repo.ListAll(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return toListResult(rows, next), nil
}

// AdminUpdateStatus walks the forward-only fulfillment ladder. Marking an
// order delivered settles a still-pending payment.
func (s *service) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", next))
	}
	if next == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use the cancel operation to cancel an order")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	updates := map[string]any{"status": next}
	if next == enums.OrderStatusDelivered && order.PaymentStatus == enums.PaymentStatusPending {
		updates["payment_status"] = enums.PaymentStatusPaid
	}
	if err := s.repo.Update(ctx, order.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}

	updated, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return FromModel(updated), nil
}

// ExpireStale cancels processing orders whose payment never settled before
// the cutoff, restoring their stock. No refund is involved since nothing
// was collected. Returns how many orders were expired.
func (s *service) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.FindStalePending(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find stale orders")
	}

	expired := 0
	var errs error
	for i := range stale {
		order := &stale[i]
		if err := s.cancelAndRestock(ctx, order, false); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		expired++
	}
	return expired, errs
}

func (s *service) loadOwned(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and user id are required")
	}
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func toListResult(rows []models.Order, next string) *ListResult {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return &ListResult{Orders: out, NextCursor: next}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
