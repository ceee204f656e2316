package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	pkgerrors "github.com/anayakapoor/luxethreads-backend/pkg/errors"
)

type stubCartRepo struct {
	items    []models.CartItem
	item     *models.CartItem
	product  *models.Product
	created  []*models.CartItem
	updates  map[uuid.UUID]int
	deleted  int64
	cleared  bool
	listErr  error
	clearErr error
}

func (s *stubCartRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubCartRepo) ListByUser(context.Context, uuid.UUID) ([]models.CartItem, error) {
	return s.items, s.listErr
}

func (s *stubCartRepo) FindItem(context.Context, uuid.UUID, uuid.UUID) (*models.CartItem, error) {
	if s.item == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.item, nil
}

func (s *stubCartRepo) Create(_ context.Context, item *models.CartItem) error {
	s.created = append(s.created, item)
	return nil
}

func (s *stubCartRepo) UpdateQuantity(_ context.Context, _, productID uuid.UUID, quantity int) error {
	if s.updates == nil {
		s.updates = map[uuid.UUID]int{}
	}
	s.updates[productID] = quantity
	return nil
}

func (s *stubCartRepo) DeleteItem(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return s.deleted, nil
}

func (s *stubCartRepo) FindProduct(context.Context, uuid.UUID) (*models.Product, error) {
	if s.product == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.product, nil
}

func (s *stubCartRepo) ClearByUser(context.Context, uuid.UUID) error {
	s.cleared = true
	return s.clearErr
}

func activeProduct(name string, price string, stock int) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Category: "dresses",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
}

func cartLine(product *models.Product, qty int) models.CartItem {
	return models.CartItem{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProductID: product.ID,
		Quantity:  qty,
		Product:   product,
	}
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return typed.Code()
}

func TestCartGetComputesTotals(t *testing.T) {
	t.Parallel()

	dress := activeProduct("Silk Slip Dress", "289.00", 10)
	blazer := activeProduct("Wool Blazer", "410.00", 4)
	repo := &stubCartRepo{items: []models.CartItem{cartLine(dress, 2), cartLine(blazer, 1)}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(dto.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(dto.Items))
	}
	if got := dto.Subtotal.StringFixed(2); got != "988.00" {
		t.Fatalf("expected subtotal 988.00, got %s", got)
	}
	if dto.ItemCount != 3 {
		t.Fatalf("expected item count 3, got %d", dto.ItemCount)
	}
	if got := dto.Items[0].LineTotal.StringFixed(2); got != "578.00" {
		t.Fatalf("expected line total 578.00, got %s", got)
	}
}

func TestCartAddItemCreatesNewLine(t *testing.T) {
	t.Parallel()

	product := activeProduct("Wool Blazer", "410.00", 4)
	repo := &stubCartRepo{product: product}
	svc, _ := NewService(repo)

	userID := uuid.New()
	if _, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 created line, got %d", len(repo.created))
	}
	if repo.created[0].Quantity != 2 || repo.created[0].UserID != userID {
		t.Fatalf("unexpected created line %+v", repo.created[0])
	}
}

func TestCartAddItemMergesExistingLine(t *testing.T) {
	t.Parallel()

	product := activeProduct("Wool Blazer", "410.00", 5)
	existing := cartLine(product, 2)
	repo := &stubCartRepo{product: product, item: &existing, items: []models.CartItem{existing}}
	svc, _ := NewService(repo)

	if _, err := svc.AddItem(context.Background(), existing.UserID, AddItemRequest{ProductID: product.ID, Quantity: 3}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected merge, got new line")
	}
	if got := repo.updates[product.ID]; got != 5 {
		t.Fatalf("expected merged quantity 5, got %d", got)
	}
}

func TestCartAddItemRejectsOverStock(t *testing.T) {
	t.Parallel()

	product := activeProduct("Wool Blazer", "410.00", 2)
	existing := cartLine(product, 2)
	repo := &stubCartRepo{product: product, item: &existing}
	svc, _ := NewService(repo)

	_, err := svc.AddItem(context.Background(), existing.UserID, AddItemRequest{ProductID: product.ID, Quantity: 1})
	if code := errCode(t, err); code != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{}
	svc, _ := NewService(repo)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: uuid.New(), Quantity: 1})
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}

func TestCartAddItemInactiveProduct(t *testing.T) {
	t.Parallel()

	product := activeProduct("Retired Coat", "600.00", 8)
	product.IsActive = false
	repo := &stubCartRepo{product: product}
	svc, _ := NewService(repo)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: product.ID, Quantity: 1})
	if code := errCode(t, err); code != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}
}

func TestCartUpdateItemNotInCart(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{product: activeProduct("Wool Blazer", "410.00", 4)}
	svc, _ := NewService(repo)

	_, err := svc.UpdateItem(context.Background(), uuid.New(), uuid.New(), UpdateItemRequest{Quantity: 1})
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}

func TestCartRemoveItemNotInCart(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{deleted: 0}
	svc, _ := NewService(repo)

	_, err := svc.RemoveItem(context.Background(), uuid.New(), uuid.New())
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}

func TestCartValidatePartitionsLines(t *testing.T) {
	t.Parallel()

	healthy := activeProduct("Silk Slip Dress", "289.00", 10)
	inactive := activeProduct("Retired Coat", "600.00", 8)
	inactive.IsActive = false
	lowStock := activeProduct("Wool Blazer", "410.00", 1)

	missingLine := cartLine(healthy, 1)
	missingLine.Product = nil

	repo := &stubCartRepo{items: []models.CartItem{
		cartLine(healthy, 2),
		cartLine(inactive, 1),
		cartLine(lowStock, 3),
		missingLine,
	}}
	svc, _ := NewService(repo)

	result, err := svc.Validate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(result.Valid) != 1 || len(result.Invalid) != 3 {
		t.Fatalf("expected 1 valid / 3 invalid, got %d / %d", len(result.Valid), len(result.Invalid))
	}
	if result.AllValid() {
		t.Fatalf("expected AllValid to be false")
	}
	if got := result.Subtotal.StringFixed(2); got != "578.00" {
		t.Fatalf("expected subtotal 578.00, got %s", got)
	}
	if result.ItemCount != 2 {
		t.Fatalf("item count must cover valid lines only, got %d", result.ItemCount)
	}

	reasons := map[string]bool{}
	for _, invalid := range result.Invalid {
		reasons[invalid.Reason] = true
	}
	for _, want := range []string{ReasonProductInactive, ReasonInsufficientStock, ReasonProductMissing} {
		if !reasons[want] {
			t.Fatalf("missing invalid reason %s", want)
		}
	}
}

func TestCartValidateEmptyCart(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubCartRepo{})
	_, err := svc.Validate(context.Background(), uuid.New())
	if code := errCode(t, err); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", code)
	}
}
