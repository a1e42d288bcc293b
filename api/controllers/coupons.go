package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mcastellan/terravia-backend/api/responses"
	"github.com/mcastellan/terravia-backend/api/validators"
	"github.com/mcastellan/terravia-backend/internal/cart"
	"github.com/mcastellan/terravia-backend/internal/coupons"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
	"github.com/mcastellan/terravia-backend/pkg/logger"
)

type validateCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

type validateCouponResponse struct {
	Code          string `json:"code"`
	DiscountCents int64  `json:"discount_cents"`
	SubtotalCents int64  `json:"subtotal_cents"`
	TotalCents    int64  `json:"total_cents"`
}

type createCouponRequest struct {
	Code           string          `json:"code" validate:"required"`
	Description    *string         `json:"description,omitempty"`
	DiscountType   string          `json:"discount_type" validate:"required"`
	DiscountValue  decimal.Decimal `json:"discount_value" validate:"required"`
	MinAmountCents *int64          `json:"min_amount_cents,omitempty"`
	MaxUses        *int            `json:"max_uses,omitempty"`
	ValidFrom      time.Time       `json:"valid_from" validate:"required"`
	ValidUntil     time.Time       `json:"valid_until" validate:"required"`
	Active         *bool           `json:"active,omitempty"`
}

type updateCouponRequest struct {
	Description    *string          `json:"description,omitempty"`
	DiscountValue  *decimal.Decimal `json:"discount_value,omitempty"`
	MinAmountCents *int64           `json:"min_amount_cents,omitempty"`
	MaxUses        *int             `json:"max_uses,omitempty"`
	ValidFrom      *time.Time       `json:"valid_from,omitempty"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty"`
	Active         *bool            `json:"active,omitempty"`
}

// ValidateCoupon previews a coupon against the caller's current cart.
// Nothing is consumed; redemption happens at checkout.
func ValidateCoupon(couponsSvc coupons.Service, cartSvc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if couponsSvc == nil || cartSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		userID, _, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req validateCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := cartSvc.ValidateForCheckout(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := couponsSvc.ValidateForOrder(r.Context(), req.Code, view.SubtotalCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, validateCouponResponse{
			Code:          discount.Code,
			DiscountCents: discount.DiscountCents,
			SubtotalCents: view.SubtotalCents,
			TotalCents:    view.SubtotalCents - discount.DiscountCents,
		})
	}
}

// CreateCoupon registers a new coupon. Staff only.
func CreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var req createCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseDiscountType(req.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}

		coupon, err := svc.CreateCoupon(r.Context(), coupons.CreateCouponInput{
			Code:           req.Code,
			Description:    req.Description,
			DiscountType:   discountType,
			DiscountValue:  req.DiscountValue,
			MinAmountCents: req.MinAmountCents,
			MaxUses:        req.MaxUses,
			ValidFrom:      req.ValidFrom,
			ValidUntil:     req.ValidUntil,
			Active:         req.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

// GetCoupon returns a coupon by its code. Staff only.
func GetCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required"))
			return
		}

		coupon, err := svc.GetCoupon(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

// ListCoupons returns all coupons, optionally only the active ones. Staff only.
func ListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		activeOnly, err := validators.ParseQueryBool(r, "activeOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListCoupons(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// UpdateCoupon applies a partial edit. Staff only.
func UpdateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := parseUUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.UpdateCoupon(r.Context(), couponID, coupons.UpdateCouponInput{
			Description:    req.Description,
			DiscountValue:  req.DiscountValue,
			MinAmountCents: req.MinAmountCents,
			MaxUses:        req.MaxUses,
			ValidFrom:      req.ValidFrom,
			ValidUntil:     req.ValidUntil,
			Active:         req.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

// DeactivateCoupon turns a coupon off. Staff only.
func DeactivateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := parseUUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeactivateCoupon(r.Context(), couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
