package wishlist

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

func setupWishlistTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  type TEXT NOT NULL,
  provider TEXT,
  base_price_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  available INTEGER NOT NULL DEFAULT 1,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS wishlist_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, product_id)
);`}

	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedWishlistProduct(t *testing.T, db *gorm.DB, name string) models.Product {
	t.Helper()
	product := models.Product{
		ID:             uuid.New(),
		Name:           name,
		Type:           enums.ProductTypeActivity,
		BasePriceCents: 80_00,
		Currency:       enums.CurrencyUSD,
		Available:      true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestAddItemIgnoresDuplicates(t *testing.T) {
	db := setupWishlistTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	product := seedWishlistProduct(t, db, "Glacier Trek")

	require.NoError(t, repo.AddItem(context.Background(), userID, product.ID))
	require.NoError(t, repo.AddItem(context.Background(), userID, product.ID))

	var count int64
	require.NoError(t, db.Model(&models.WishlistItem{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRemoveItemReportsMissingRow(t *testing.T) {
	db := setupWishlistTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	product := seedWishlistProduct(t, db, "Glacier Trek")
	require.NoError(t, repo.AddItem(context.Background(), userID, product.ID))

	affected, err := repo.RemoveItem(context.Background(), userID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.RemoveItem(context.Background(), userID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestListItemsNewestFirstWithCursor(t *testing.T) {
	db := setupWishlistTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	var products []models.Product
	for i := 0; i < 3; i++ {
		product := seedWishlistProduct(t, db, fmt.Sprintf("Trip %d", i))
		item := models.WishlistItem{
			ID:        uuid.New(),
			UserID:    userID,
			ProductID: product.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&item).Error)
		products = append(products, product)
	}

	rows, nextCursor, total, err := repo.ListItems(context.Background(), userID, "", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, products[2].ID, rows[0].ProductID)
	assert.NotEmpty(t, nextCursor)
	assert.Equal(t, int64(3), total)
	require.NotNil(t, rows[0].Product)
	assert.Equal(t, "Trip 2", rows[0].Product.Name)

	rows, nextCursor, _, err = repo.ListItems(context.Background(), userID, nextCursor, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, products[0].ID, rows[0].ProductID)
	assert.Empty(t, nextCursor)
}
