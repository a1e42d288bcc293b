package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/types"
)

// Order is the immutable record produced by checkout. Prices and names
// on its items are snapshots taken at creation time; later catalog
// edits never change what the customer agreed to pay.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string            `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	SubtotalCents    int64             `gorm:"column:subtotal_cents;not null"`
	DiscountCents    int64             `gorm:"column:discount_cents;not null;default:0"`
	TotalAmountCents int64             `gorm:"column:total_amount_cents;not null"`
	Currency         enums.Currency    `gorm:"column:currency;type:text;not null"`
	CouponCode       *string           `gorm:"column:coupon_code"`
	BillingInfo      types.BillingInfo `gorm:"column:billing_info;type:jsonb;not null"`
	InternalNotes    *string           `gorm:"column:internal_notes"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Items    []OrderItem `gorm:"foreignKey:OrderID"`
	Payments []Payment   `gorm:"foreignKey:OrderID"`
	User     *User       `gorm:"foreignKey:UserID"`
}

// OrderItem is a priced snapshot of one cart line at checkout time.
type OrderItem struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	ItemKind       enums.ItemKind `gorm:"column:item_kind;type:text;not null"`
	ItemID         uuid.UUID      `gorm:"column:item_id;type:uuid;not null"`
	Name           string         `gorm:"column:name;not null"`
	Quantity       int            `gorm:"column:quantity;not null"`
	UnitPriceCents int64          `gorm:"column:unit_price_cents;not null"`
	TotalCents     int64          `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
}
