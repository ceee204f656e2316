package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	pkgerrors "github.com/anayakapoor/luxethreads-backend/pkg/errors"
)

// Service defines cart operations used by controllers and checkout.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, req UpdateItemRequest) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Validate(ctx context.Context, userID uuid.UUID) (*ValidationResult, error)
}

type service struct {
	repo Repository
}

// NewService constructs the cart service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	dto := &CartDTO{Items: make([]ItemDTO, 0, len(items)), Subtotal: decimal.Zero}
	for i := range items {
		item := &items[i]
		if item.Product == nil {
			continue
		}
		line := ItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			UnitPrice:   item.Product.Price,
			Quantity:    item.Quantity,
			LineTotal:   item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			ImageURL:    item.Product.ImageURL,
			AddedAt:     item.CreatedAt,
		}
		dto.Items = append(dto.Items, line)
		dto.Subtotal = dto.Subtotal.Add(line.LineTotal)
		dto.ItemCount += item.Quantity
	}
	return dto, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error) {
	if req.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.loadProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, userID, req.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	targetQty := req.Quantity
	if existing != nil {
		targetQty += existing.Quantity
	}
	if targetQty > product.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("only %d units of %s available", product.Stock, product.Name))
	}

	if existing != nil {
		if err := s.repo.UpdateQuantity(ctx, userID, req.ProductID, targetQty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
	} else {
		item := &models.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: targetQty}
		if err := s.repo.Create(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}
	}

	return s.Get(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, productID uuid.UUID, req UpdateItemRequest) (*CartDTO, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if _, err := s.repo.FindItem(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if req.Quantity > product.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("only %d units of %s available", product.Stock, product.Name))
	}

	if err := s.repo.UpdateQuantity(ctx, userID, productID, req.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	affected, err := s.repo.DeleteItem(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.ClearByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Validate partitions the cart into purchasable and blocked lines against
// live product state. Checkout only proceeds when every line is valid.
func (s *service) Validate(ctx context.Context, userID uuid.UUID) (*ValidationResult, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	result := &ValidationResult{Subtotal: decimal.Zero}
	for i := range items {
		item := &items[i]
		product := item.Product

		switch {
		case product == nil:
			result.Invalid = append(result.Invalid, InvalidItem{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Reason:    ReasonProductMissing,
			})
		case !product.IsActive:
			result.Invalid = append(result.Invalid, InvalidItem{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Stock,
				Reason:      ReasonProductInactive,
			})
		case item.Quantity > product.Stock:
			result.Invalid = append(result.Invalid, InvalidItem{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Stock,
				Reason:      ReasonInsufficientStock,
			})
		default:
			line := ItemDTO{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				UnitPrice:   product.Price,
				Quantity:    item.Quantity,
				LineTotal:   product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
				ImageURL:    product.ImageURL,
				AddedAt:     item.CreatedAt,
			}
			result.Valid = append(result.Valid, line)
			result.Subtotal = result.Subtotal.Add(line.LineTotal)
			result.ItemCount += item.Quantity
		}
	}
	return result, nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	row, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !row.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is unavailable")
	}
	return row, nil
}
