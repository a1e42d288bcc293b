package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// CouponDTO is the public projection of a coupon.
type CouponDTO struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	Description    *string            `json:"description,omitempty"`
	DiscountType   enums.DiscountType `json:"discount_type"`
	DiscountValue  decimal.Decimal    `json:"discount_value"`
	MinAmountCents *int64             `json:"min_amount_cents,omitempty"`
	MaxUses        *int               `json:"max_uses,omitempty"`
	CurrentUses    int                `json:"current_uses"`
	ValidFrom      time.Time          `json:"valid_from"`
	ValidUntil     time.Time          `json:"valid_until"`
	Active         bool               `json:"active"`
	CreatedAt      time.Time          `json:"created_at"`
}

// CreateCouponInput captures the fields accepted when creating a coupon.
type CreateCouponInput struct {
	Code           string
	Description    *string
	DiscountType   enums.DiscountType
	DiscountValue  decimal.Decimal
	MinAmountCents *int64
	MaxUses        *int
	ValidFrom      time.Time
	ValidUntil     time.Time
	Active         *bool
}

// UpdateCouponInput carries partial updates; nil fields are left unchanged.
type UpdateCouponInput struct {
	Description    *string
	DiscountValue  *decimal.Decimal
	MinAmountCents *int64
	MaxUses        *int
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Active         *bool
}

// Discount is the outcome of validating a coupon against a subtotal.
type Discount struct {
	CouponID      uuid.UUID
	Code          string
	DiscountCents int64
}

func toDTO(c models.Coupon) CouponDTO {
	return CouponDTO{
		ID:             c.ID,
		Code:           c.Code,
		Description:    c.Description,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		MinAmountCents: c.MinAmountCents,
		MaxUses:        c.MaxUses,
		CurrentUses:    c.CurrentUses,
		ValidFrom:      c.ValidFrom,
		ValidUntil:     c.ValidUntil,
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
	}
}
