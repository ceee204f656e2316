package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL,
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE(user_id, product_id)
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Category: "outerwear",
		Price:    decimal.RequireFromString("410.00"),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedCartItem(t *testing.T, db *gorm.DB, userID uuid.UUID, product *models.Product, qty int) *models.CartItem {
	t.Helper()

	item := &models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: product.ID,
		Quantity:  qty,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestCartRepoListPreloadsProducts(t *testing.T) {
	t.Parallel()

	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	blazer := seedProduct(t, db, "Wool Blazer", 4)
	dress := seedProduct(t, db, "Silk Slip Dress", 10)
	seedCartItem(t, db, userID, blazer, 1)
	seedCartItem(t, db, userID, dress, 2)
	seedCartItem(t, db, uuid.New(), blazer, 3) // someone else's cart

	items, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	names := map[string]bool{}
	for _, item := range items {
		require.NotNil(t, item.Product)
		names[item.Product.Name] = true
	}
	assert.True(t, names["Wool Blazer"] && names["Silk Slip Dress"])
}

func TestCartRepoItemLifecycle(t *testing.T) {
	t.Parallel()

	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	blazer := seedProduct(t, db, "Wool Blazer", 4)
	seedCartItem(t, db, userID, blazer, 1)

	found, err := repo.FindItem(ctx, userID, blazer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Quantity)

	require.NoError(t, repo.UpdateQuantity(ctx, userID, blazer.ID, 3))
	found, err = repo.FindItem(ctx, userID, blazer.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Quantity)

	affected, err := repo.DeleteItem(ctx, userID, blazer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	_, err = repo.FindItem(ctx, userID, blazer.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepoDeleteMissingItem(t *testing.T) {
	t.Parallel()

	db := setupCartTestDB(t)
	repo := NewRepository(db)

	affected, err := repo.DeleteItem(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 0, affected)
}

func TestCartRepoClearByUser(t *testing.T) {
	t.Parallel()

	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	otherID := uuid.New()

	blazer := seedProduct(t, db, "Wool Blazer", 4)
	dress := seedProduct(t, db, "Silk Slip Dress", 10)
	seedCartItem(t, db, userID, blazer, 1)
	seedCartItem(t, db, userID, dress, 2)
	seedCartItem(t, db, otherID, blazer, 1)

	require.NoError(t, repo.ClearByUser(ctx, userID))

	mine, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := repo.ListByUser(ctx, otherID)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
