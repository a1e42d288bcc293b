package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// Repository encapsulates cart persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// AddOrIncrement inserts a cart line or, when the (user, kind, id) line
// already exists, bumps its quantity in place. The single upsert keeps
// concurrent adds from ever producing duplicate lines.
func (r *Repository) AddOrIncrement(ctx context.Context, userID uuid.UUID, kind enums.ItemKind, itemID uuid.UUID, quantity int) error {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Exec(`
INSERT INTO cart_items (id, user_id, item_kind, item_id, quantity, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, item_kind, item_id)
DO UPDATE SET quantity = cart_items.quantity + excluded.quantity, updated_at = excluded.updated_at`,
		uuid.New(), userID, kind, itemID, quantity, now, now,
	).Error
}

func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindLine(ctx context.Context, userID, lineID uuid.UUID) (*models.CartItem, error) {
	var row models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) SetQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", lineID, userID).
		Updates(map[string]any{"quantity": quantity})
	return result.RowsAffected, result.Error
}

func (r *Repository) DeleteLine(ctx context.Context, userID, lineID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// Clear removes every line of a user's cart. Checkout calls this on its
// transaction so the cart empties atomically with order creation.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}
