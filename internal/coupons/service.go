package coupons

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/mcastellan/terravia-backend/pkg/db"
	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Service exposes coupon validation, redemption and administration.
type Service interface {
	ValidateForOrder(ctx context.Context, code string, subtotalCents int64) (Discount, error)
	RedeemTx(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error

	CreateCoupon(ctx context.Context, input CreateCouponInput) (CouponDTO, error)
	GetCoupon(ctx context.Context, code string) (CouponDTO, error)
	ListCoupons(ctx context.Context, activeOnly bool) ([]CouponDTO, error)
	UpdateCoupon(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (CouponDTO, error)
	DeactivateCoupon(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups dependencies for the coupon service.
type ServiceParams struct {
	Repo *Repository
	Now  func() time.Time
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds a coupon service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon repo is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, now: now}, nil
}

// ValidateForOrder checks every redemption precondition and computes the
// discount for the given subtotal. It does not consume a use; that
// happens inside the checkout transaction via RedeemTx.
func (s *service) ValidateForOrder(ctx context.Context, code string, subtotalCents int64) (Discount, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Discount{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "coupon not found")
		}
		return Discount{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	now := s.now()
	switch {
	case !coupon.Active:
		return Discount{}, pkgerrors.New(pkgerrors.CodeStateConflict, "coupon is inactive")
	case now.Before(coupon.ValidFrom):
		return Discount{}, pkgerrors.New(pkgerrors.CodeStateConflict, "coupon is not yet valid")
	case now.After(coupon.ValidUntil):
		return Discount{}, pkgerrors.New(pkgerrors.CodeStateConflict, "coupon has expired")
	case coupon.MaxUses != nil && coupon.CurrentUses >= *coupon.MaxUses:
		return Discount{}, pkgerrors.New(pkgerrors.CodeStateConflict, "coupon usage limit reached")
	case coupon.MinAmountCents != nil && subtotalCents < *coupon.MinAmountCents:
		return Discount{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order subtotal below coupon minimum")
	}

	return Discount{
		CouponID:      coupon.ID,
		Code:          coupon.Code,
		DiscountCents: computeDiscountCents(coupon.DiscountType, coupon.DiscountValue, subtotalCents),
	}, nil
}

// RedeemTx consumes one use on the caller's transaction. A zero-row
// update means a concurrent checkout took the last slot, so the whole
// checkout rolls back.
func (s *service) RedeemTx(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	affected, err := s.repo.WithTx(tx).IncrementUsesIfAvailable(ctx, couponID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem coupon")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "coupon usage limit reached")
	}
	return nil
}

func (s *service) CreateCoupon(ctx context.Context, input CreateCouponInput) (CouponDTO, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.DiscountType.IsValid() {
		return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.DiscountValue.IsNegative() {
		return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be non-negative")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.DiscountValue.GreaterThan(oneHundred) {
		return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if input.ValidFrom.IsZero() || input.ValidUntil.IsZero() || !input.ValidUntil.After(input.ValidFrom) {
		return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "validity window is invalid")
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "max uses must be positive")
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	coupon := models.Coupon{
		Code:           code,
		Description:    input.Description,
		DiscountType:   input.DiscountType,
		DiscountValue:  input.DiscountValue,
		MinAmountCents: input.MinAmountCents,
		MaxUses:        input.MaxUses,
		ValidFrom:      input.ValidFrom,
		ValidUntil:     input.ValidUntil,
		Active:         active,
	}
	if err := s.repo.Create(ctx, &coupon); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_coupons_code") {
			return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "coupon code already exists")
		}
		return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return toDTO(coupon), nil
}

func (s *service) GetCoupon(ctx context.Context, code string) (CouponDTO, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "coupon not found")
		}
		return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return toDTO(*coupon), nil
}

func (s *service) ListCoupons(ctx context.Context, activeOnly bool) ([]CouponDTO, error) {
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	dtos := make([]CouponDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toDTO(row))
	}
	return dtos, nil
}

func (s *service) UpdateCoupon(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (CouponDTO, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "coupon not found")
		}
		return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	updates := map[string]any{}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.DiscountValue != nil {
		if input.DiscountValue.IsNegative() {
			return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be non-negative")
		}
		if coupon.DiscountType == enums.DiscountTypePercentage && input.DiscountValue.GreaterThan(oneHundred) {
			return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
		}
		updates["discount_value"] = *input.DiscountValue
	}
	if input.MinAmountCents != nil {
		updates["min_amount_cents"] = *input.MinAmountCents
	}
	if input.MaxUses != nil {
		if *input.MaxUses <= 0 {
			return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "max uses must be positive")
		}
		updates["max_uses"] = *input.MaxUses
	}
	if input.ValidFrom != nil {
		updates["valid_from"] = *input.ValidFrom
	}
	if input.ValidUntil != nil {
		updates["valid_until"] = *input.ValidUntil
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if len(updates) == 0 {
		return toDTO(*coupon), nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload coupon")
	}
	return toDTO(*updated), nil
}

func (s *service) DeactivateCoupon(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "coupon not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if err := s.repo.Update(ctx, id, map[string]any{"active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate coupon")
	}
	return nil
}

// computeDiscountCents applies the coupon's value to a subtotal.
// Percentage math runs on decimals and rounds half-up at cents.
// FIXED_AMOUNT values are denominated in major currency units. The
// result is not clamped to the subtotal.
func computeDiscountCents(discountType enums.DiscountType, value decimal.Decimal, subtotalCents int64) int64 {
	switch discountType {
	case enums.DiscountTypePercentage:
		return decimal.NewFromInt(subtotalCents).
			Mul(value).
			Div(oneHundred).
			Round(0).
			IntPart()
	case enums.DiscountTypeFixedAmount:
		return value.Shift(2).Round(0).IntPart()
	default:
		return 0
	}
}
