package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem saves a product for later. Adding the same product twice
// is a no-op thanks to the unique pair index.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_wishlist_items_user_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_wishlist_items_user_product"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
