package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// ProductDTO is the public projection of a catalog product.
type ProductDTO struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Description    *string           `json:"description,omitempty"`
	Type           enums.ProductType `json:"type"`
	Provider       *string           `json:"provider,omitempty"`
	BasePriceCents int64             `json:"base_price_cents"`
	Currency       enums.Currency    `json:"currency"`
	Available      bool              `json:"available"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// PackageItemDTO is one component of a package.
type PackageItemDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
}

// PackageDTO is the public projection of a travel package.
type PackageDTO struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	TotalPriceCents int64            `json:"total_price_cents"`
	Currency        enums.Currency   `json:"currency"`
	Available       bool             `json:"available"`
	IsCustom        bool             `json:"is_custom"`
	Items           []PackageItemDTO `json:"items"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ProductsPageDTO is a cursor-paginated product listing.
type ProductsPageDTO struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
	Total      int64        `json:"total"`
}

// PackagesPageDTO is a cursor-paginated package listing.
type PackagesPageDTO struct {
	Items      []PackageDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
	Total      int64        `json:"total"`
}

// CreateProductInput captures the fields accepted when creating a product.
type CreateProductInput struct {
	Name           string
	Description    *string
	Type           enums.ProductType
	Provider       *string
	BasePriceCents int64
	Currency       enums.Currency
	Available      *bool
}

// UpdateProductInput carries partial updates; nil fields are left unchanged.
type UpdateProductInput struct {
	Name           *string
	Description    *string
	Provider       *string
	BasePriceCents *int64
	Currency       *enums.Currency
	Available      *bool
}

// PackageItemInput is one component when composing a package.
type PackageItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreatePackageInput captures the fields accepted when creating a package.
type CreatePackageInput struct {
	Name            string
	Description     *string
	TotalPriceCents int64
	Currency        enums.Currency
	IsCustom        bool
	Available       *bool
	Items           []PackageItemInput
}

// UpdatePackageInput carries partial updates; nil fields are left unchanged.
type UpdatePackageInput struct {
	Name            *string
	Description     *string
	TotalPriceCents *int64
	Currency        *enums.Currency
	Available       *bool
}

// ListProductsFilter narrows product listings.
type ListProductsFilter struct {
	Type      *enums.ProductType
	Available *bool
	Cursor    string
	Limit     int
}

// ListPackagesFilter narrows package listings.
type ListPackagesFilter struct {
	Available *bool
	Cursor    string
	Limit     int
}

// Sellable is the priced view of a product or package used by the cart
// and checkout pipelines.
type Sellable struct {
	Kind           enums.ItemKind
	ID             uuid.UUID
	Name           string
	UnitPriceCents int64
	Currency       enums.Currency
	Available      bool
}

func productToDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Type:           p.Type,
		Provider:       p.Provider,
		BasePriceCents: p.BasePriceCents,
		Currency:       p.Currency,
		Available:      p.Available,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func packageToDTO(p models.Package) PackageDTO {
	items := make([]PackageItemDTO, 0, len(p.Items))
	for _, item := range p.Items {
		dto := PackageItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			dto.Name = item.Product.Name
		}
		items = append(items, dto)
	}
	return PackageDTO{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		TotalPriceCents: p.TotalPriceCents,
		Currency:        p.Currency,
		Available:       p.Available,
		IsCustom:        p.IsCustom,
		Items:           items,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
