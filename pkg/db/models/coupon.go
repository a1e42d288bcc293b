package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// Coupon is a discount code. DiscountValue is a percentage for
// PERCENTAGE coupons and an amount in cents for FIXED_AMOUNT coupons.
// CurrentUses only moves through the conditional-update path in the
// coupons repository so MaxUses is never overshot.
type Coupon struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string             `gorm:"column:code;type:text;not null;uniqueIndex"`
	Description   *string            `gorm:"column:description"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinAmountCents *int64            `gorm:"column:min_amount_cents"`
	MaxUses       *int               `gorm:"column:max_uses"`
	CurrentUses   int                `gorm:"column:current_uses;not null;default:0"`
	ValidFrom     time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil    time.Time          `gorm:"column:valid_until;not null"`
	Active        bool               `gorm:"column:active;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
