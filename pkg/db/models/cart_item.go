package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// CartItem is one line of a user's cart. The (ItemKind, ItemID) pair
// points at exactly one product or one package; the unique index makes
// repeat additions collapse into a quantity increment at the SQL level.
type CartItem struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_cart_items_user_item"`
	ItemKind  enums.ItemKind `gorm:"column:item_kind;type:text;not null;uniqueIndex:ux_cart_items_user_item"`
	ItemID    uuid.UUID      `gorm:"column:item_id;type:uuid;not null;uniqueIndex:ux_cart_items_user_item"`
	Quantity  int            `gorm:"column:quantity;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
