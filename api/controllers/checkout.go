package controllers

import (
	"net/http"

	"github.com/mcastellan/terravia-backend/api/responses"
	"github.com/mcastellan/terravia-backend/api/validators"
	"github.com/mcastellan/terravia-backend/internal/checkout"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
	"github.com/mcastellan/terravia-backend/pkg/logger"
	"github.com/mcastellan/terravia-backend/pkg/types"
)

type checkoutRequest struct {
	CouponCode  *string           `json:"coupon_code,omitempty"`
	BillingInfo types.BillingInfo `json:"billing_info" validate:"required"`
	Notes       *string           `json:"notes,omitempty"`
}

// Checkout converts the caller's cart into a pending order.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, _, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), userID, checkout.Input{
			CouponCode:  req.CouponCode,
			BillingInfo: req.BillingInfo,
			Notes:       req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyOrderCoupon attaches a coupon to an existing pending order.
func ApplyOrderCoupon(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req applyCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ApplyCoupon(r.Context(), userID, role, orderID, req.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
