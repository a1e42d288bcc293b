package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/internal/catalog"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
)

// CatalogResolver prices cart lines against the live catalog.
type CatalogResolver interface {
	ResolveSellable(ctx context.Context, kind enums.ItemKind, id uuid.UUID) (*catalog.Sellable, error)
}

// Service exposes business rules for cart management.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartSummaryDTO, error)
	GetCart(ctx context.Context, userID uuid.UUID) (CartSummaryDTO, error)
	UpdateItemQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (CartSummaryDTO, error)
	RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (CartSummaryDTO, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
	ValidateForCheckout(ctx context.Context, userID uuid.UUID) (CheckoutView, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	CartRepo *Repository
	Catalog  CatalogResolver
}

type service struct {
	cartRepo *Repository
	catalog  CatalogResolver
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog resolver is required")
	}
	return &service{cartRepo: params.CartRepo, catalog: params.Catalog}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartSummaryDTO, error) {
	if userID == uuid.Nil {
		return CartSummaryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.ItemKind.IsValid() {
		return CartSummaryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid item kind")
	}
	if input.ItemID == uuid.Nil {
		return CartSummaryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if input.Quantity <= 0 {
		return CartSummaryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	sellable, err := s.catalog.ResolveSellable(ctx, input.ItemKind, input.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CartSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return CartSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve item")
	}
	// Unavailable items are hidden from the storefront, so adding one
	// reads the same as adding an item that does not exist.
	if !sellable.Available {
		return CartSummaryDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	if err := s.cartRepo.AddOrIncrement(ctx, userID, input.ItemKind, input.ItemID, input.Quantity); err != nil {
		return CartSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return s.GetCart(ctx, userID)
}

// GetCart prices the cart against the live catalog. Lines whose item
// has since been removed from the catalog are surfaced as unavailable
// rather than dropped.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (CartSummaryDTO, error) {
	if userID == uuid.Nil {
		return CartSummaryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	rows, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return CartSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	summary := CartSummaryDTO{Items: make([]CartItemDTO, 0, len(rows))}
	var currencies []enums.Currency
	for _, row := range rows {
		dto := CartItemDTO{
			ID:       row.ID,
			ItemKind: row.ItemKind,
			ItemID:   row.ItemID,
			Quantity: row.Quantity,
			AddedAt:  row.CreatedAt,
		}
		sellable, err := s.catalog.ResolveSellable(ctx, row.ItemKind, row.ItemID)
		switch {
		case err == nil:
			dto.Name = sellable.Name
			dto.UnitPriceCents = sellable.UnitPriceCents
			dto.Currency = sellable.Currency
			dto.Available = sellable.Available
			dto.LineTotalCents = sellable.UnitPriceCents * int64(row.Quantity)
		case errors.Is(err, gorm.ErrRecordNotFound):
			dto.Available = false
		default:
			return CartSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve item")
		}

		if dto.Available {
			summary.SubtotalCents += dto.LineTotalCents
			if !containsCurrency(currencies, dto.Currency) {
				currencies = append(currencies, dto.Currency)
			}
		}
		summary.Items = append(summary.Items, dto)
		summary.ItemCount += row.Quantity
	}

	switch len(currencies) {
	case 0:
	case 1:
		summary.Currency = currencies[0]
	default:
		summary.Currency = enums.CurrencyMixed
	}
	summary.IsEmpty = len(summary.Items) == 0
	return summary, nil
}

// UpdateItemQuantity sets a line's quantity. Zero or negative removes
// the line, so clients can decrement without a separate delete call.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (CartSummaryDTO, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, lineID)
	}
	affected, err := s.cartRepo.SetQuantity(ctx, userID, lineID, quantity)
	if err != nil {
		return CartSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if affected == 0 {
		return CartSummaryDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (CartSummaryDTO, error) {
	affected, err := s.cartRepo.DeleteLine(ctx, userID, lineID)
	if err != nil {
		return CartSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if affected == 0 {
		return CartSummaryDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// ValidateForCheckout reprices every line and enforces the checkout
// preconditions: non-empty cart, all items available, one currency.
func (s *service) ValidateForCheckout(ctx context.Context, userID uuid.UUID) (CheckoutView, error) {
	rows, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return CheckoutView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(rows) == 0 {
		return CheckoutView{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	view := CheckoutView{Lines: make([]PricedLine, 0, len(rows))}
	var unavailable []string
	for _, row := range rows {
		sellable, err := s.catalog.ResolveSellable(ctx, row.ItemKind, row.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				unavailable = append(unavailable, row.ItemID.String())
				continue
			}
			return CheckoutView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve item")
		}
		if !sellable.Available {
			unavailable = append(unavailable, sellable.Name)
			continue
		}

		if view.Currency == "" {
			view.Currency = sellable.Currency
		} else if view.Currency != sellable.Currency {
			return CheckoutView{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart mixes currencies")
		}

		line := PricedLine{
			ItemKind:       row.ItemKind,
			ItemID:         row.ItemID,
			Name:           sellable.Name,
			UnitPriceCents: sellable.UnitPriceCents,
			Quantity:       row.Quantity,
			TotalCents:     sellable.UnitPriceCents * int64(row.Quantity),
			Currency:       sellable.Currency,
		}
		view.Lines = append(view.Lines, line)
		view.SubtotalCents += line.TotalCents
	}
	if len(unavailable) > 0 {
		return CheckoutView{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart contains unavailable items: "+strings.Join(unavailable, ", ")).
			WithDetails(map[string]any{"unavailable_items": unavailable})
	}
	return view, nil
}

func containsCurrency(list []enums.Currency, c enums.Currency) bool {
	for _, candidate := range list {
		if candidate == c {
			return true
		}
	}
	return false
}
