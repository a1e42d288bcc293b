package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// CartItemDTO is one cart line joined with its current catalog pricing.
type CartItemDTO struct {
	ID             uuid.UUID      `json:"id"`
	ItemKind       enums.ItemKind `json:"item_kind"`
	ItemID         uuid.UUID      `json:"item_id"`
	Name           string         `json:"name"`
	UnitPriceCents int64          `json:"unit_price_cents"`
	Currency       enums.Currency `json:"currency"`
	Quantity       int            `json:"quantity"`
	LineTotalCents int64          `json:"line_total_cents"`
	Available      bool           `json:"available"`
	AddedAt        time.Time      `json:"added_at"`
}

// CartSummaryDTO is the full cart view. Currency is MIXED when lines
// span more than one currency; such carts cannot check out.
type CartSummaryDTO struct {
	Items         []CartItemDTO  `json:"items"`
	SubtotalCents int64          `json:"subtotal_cents"`
	Currency      enums.Currency `json:"currency"`
	ItemCount     int            `json:"item_count"`
	IsEmpty       bool           `json:"is_empty"`
}

// AddItemInput captures an add-to-cart request.
type AddItemInput struct {
	ItemKind enums.ItemKind
	ItemID   uuid.UUID
	Quantity int
}

// PricedLine is a checkout-ready snapshot of one cart line. Checkout
// copies these values verbatim into order items.
type PricedLine struct {
	ItemKind       enums.ItemKind
	ItemID         uuid.UUID
	Name           string
	UnitPriceCents int64
	Quantity       int
	TotalCents     int64
	Currency       enums.Currency
}

// CheckoutView is the validated, single-currency pricing of a cart.
type CheckoutView struct {
	Lines         []PricedLine
	SubtotalCents int64
	Currency      enums.Currency
}
