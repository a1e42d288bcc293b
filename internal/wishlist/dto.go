package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// ItemDTO joins a saved product with the moment it was liked.
type ItemDTO struct {
	ID             uuid.UUID         `json:"id"`
	ProductID      uuid.UUID         `json:"product_id"`
	Name           string            `json:"name"`
	Type           enums.ProductType `json:"type"`
	BasePriceCents int64             `json:"base_price_cents"`
	Currency       enums.Currency    `json:"currency"`
	Available      bool              `json:"available"`
	AddedAt        time.Time         `json:"added_at"`
}

// ItemsPageDTO is a cursor-paginated wishlist listing.
type ItemsPageDTO struct {
	Items      []ItemDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
	Total      int64     `json:"total"`
}

func toDTO(item models.WishlistItem) ItemDTO {
	dto := ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		AddedAt:   item.CreatedAt,
	}
	if item.Product != nil {
		dto.Name = item.Product.Name
		dto.Type = item.Product.Type
		dto.BasePriceCents = item.Product.BasePriceCents
		dto.Currency = item.Product.Currency
		dto.Available = item.Product.Available
	}
	return dto
}
