package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  item_kind TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, item_kind, item_id)
);`
	require.NoError(t, db.Exec(cartItems).Error)
	return db
}

func TestAddOrIncrementCollapsesDuplicateLines(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	itemID := uuid.New()

	require.NoError(t, repo.AddOrIncrement(ctx, userID, enums.ItemKindProduct, itemID, 1))
	require.NoError(t, repo.AddOrIncrement(ctx, userID, enums.ItemKindProduct, itemID, 2))

	rows, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Quantity)
}

func TestAddOrIncrementKeepsKindsSeparate(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	itemID := uuid.New()

	require.NoError(t, repo.AddOrIncrement(ctx, userID, enums.ItemKindProduct, itemID, 1))
	require.NoError(t, repo.AddOrIncrement(ctx, userID, enums.ItemKindPackage, itemID, 1))

	rows, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSetQuantityScopedToOwner(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	require.NoError(t, repo.AddOrIncrement(ctx, owner, enums.ItemKindProduct, uuid.New(), 1))
	rows, err := repo.FindByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	lineID := rows[0].ID

	affected, err := repo.SetQuantity(ctx, uuid.New(), lineID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = repo.SetQuantity(ctx, owner, lineID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	line, err := repo.FindLine(ctx, owner, lineID)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
}

func TestClearRemovesOnlyOwnersLines(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	other := uuid.New()
	require.NoError(t, repo.AddOrIncrement(ctx, owner, enums.ItemKindProduct, uuid.New(), 1))
	require.NoError(t, repo.AddOrIncrement(ctx, other, enums.ItemKindProduct, uuid.New(), 1))

	require.NoError(t, repo.Clear(ctx, owner))

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
