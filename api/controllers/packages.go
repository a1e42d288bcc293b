package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/api/responses"
	"github.com/mcastellan/terravia-backend/api/validators"
	"github.com/mcastellan/terravia-backend/internal/catalog"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
	"github.com/mcastellan/terravia-backend/pkg/logger"
	"github.com/mcastellan/terravia-backend/pkg/pagination"
)

type packageItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type createPackageRequest struct {
	Name            string               `json:"name" validate:"required"`
	Description     *string              `json:"description,omitempty"`
	TotalPriceCents int64                `json:"total_price_cents" validate:"gte=0"`
	Currency        string               `json:"currency" validate:"required"`
	IsCustom        bool                 `json:"is_custom"`
	Available       *bool                `json:"available,omitempty"`
	Items           []packageItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updatePackageRequest struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	TotalPriceCents *int64  `json:"total_price_cents,omitempty"`
	Currency        *string `json:"currency,omitempty"`
	Available       *bool   `json:"available,omitempty"`
}

func ListPackages(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := catalog.ListPackagesFilter{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			Limit:  limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("available")); raw != "" {
			available, err := validators.ParseQueryBool(r, "available")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.Available = &available
		}

		page, err := svc.ListPackages(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetPackage(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		packageID, err := parseUUIDParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkg, err := svc.GetPackage(r.Context(), packageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pkg)
	}
}

// CreatePackage composes a new package from existing products. Staff only.
func CreatePackage(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var req createPackageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		currency, err := enums.ParseCurrency(req.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}

		items := make([]catalog.PackageItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, catalog.PackageItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		pkg, err := svc.CreatePackage(r.Context(), catalog.CreatePackageInput{
			Name:            req.Name,
			Description:     req.Description,
			TotalPriceCents: req.TotalPriceCents,
			Currency:        currency,
			IsCustom:        req.IsCustom,
			Available:       req.Available,
			Items:           items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pkg)
	}
}

// UpdatePackage applies a partial edit. Staff only.
func UpdatePackage(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		packageID, err := parseUUIDParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updatePackageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdatePackageInput{
			Name:            req.Name,
			Description:     req.Description,
			TotalPriceCents: req.TotalPriceCents,
			Available:       req.Available,
		}
		if req.Currency != nil {
			currency, err := enums.ParseCurrency(*req.Currency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
				return
			}
			input.Currency = &currency
		}

		pkg, err := svc.UpdatePackage(r.Context(), packageID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pkg)
	}
}

// DeletePackage soft deletes a package. Staff only.
func DeletePackage(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		packageID, err := parseUUIDParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeletePackage(r.Context(), packageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
