package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
)

// Service exposes catalog management and lookups.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (ProductDTO, error)
	ListProducts(ctx context.Context, filter ListProductsFilter) (ProductsPageDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreatePackage(ctx context.Context, input CreatePackageInput) (PackageDTO, error)
	GetPackage(ctx context.Context, id uuid.UUID) (PackageDTO, error)
	ListPackages(ctx context.Context, filter ListPackagesFilter) (PackagesPageDTO, error)
	UpdatePackage(ctx context.Context, id uuid.UUID, input UpdatePackageInput) (PackageDTO, error)
	DeletePackage(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo *Repository
}

type service struct {
	repo *Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (ProductDTO, error) {
	if input.Name == "" {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !input.Type.IsValid() {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	if !input.Currency.IsValid() {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if input.BasePriceCents < 0 {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}

	available := true
	if input.Available != nil {
		available = *input.Available
	}

	product := models.Product{
		Name:           input.Name,
		Description:    input.Description,
		Type:           input.Type,
		Provider:       input.Provider,
		BasePriceCents: input.BasePriceCents,
		Currency:       input.Currency,
		Available:      available,
	}
	if err := s.repo.CreateProduct(ctx, &product); err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return productToDTO(product), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return productToDTO(*product), nil
}

func (s *service) ListProducts(ctx context.Context, filter ListProductsFilter) (ProductsPageDTO, error) {
	if filter.Type != nil && !filter.Type.IsValid() {
		return ProductsPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type filter")
	}
	rows, nextCursor, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return ProductsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	items := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, productToDTO(row))
	}
	return ProductsPageDTO{Items: items, NextCursor: nextCursor, Total: total}, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (ProductDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Provider != nil {
		updates["provider"] = *input.Provider
	}
	if input.BasePriceCents != nil {
		if *input.BasePriceCents < 0 {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		updates["base_price_cents"] = *input.BasePriceCents
	}
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
		}
		updates["currency"] = *input.Currency
	}
	if input.Available != nil {
		updates["available"] = *input.Available
	}
	if len(updates) == 0 {
		return s.GetProduct(ctx, id)
	}

	if _, err := s.GetProduct(ctx, id); err != nil {
		return ProductDTO{}, err
	}
	if err := s.repo.UpdateProduct(ctx, id, updates); err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) CreatePackage(ctx context.Context, input CreatePackageInput) (PackageDTO, error) {
	if input.Name == "" {
		return PackageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "package name is required")
	}
	if !input.Currency.IsValid() {
		return PackageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if input.TotalPriceCents < 0 {
		return PackageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if len(input.Items) == 0 {
		return PackageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "package requires at least one item")
	}

	items := make([]models.PackageItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return PackageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if _, err := s.repo.FindProductByID(ctx, item.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return PackageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "package references unknown product")
			}
			return PackageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		items = append(items, models.PackageItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	available := true
	if input.Available != nil {
		available = *input.Available
	}

	pkg := models.Package{
		Name:            input.Name,
		Description:     input.Description,
		TotalPriceCents: input.TotalPriceCents,
		Currency:        input.Currency,
		Available:       available,
		IsCustom:        input.IsCustom,
		Items:           items,
	}
	if err := s.repo.CreatePackage(ctx, &pkg); err != nil {
		return PackageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create package")
	}
	return s.GetPackage(ctx, pkg.ID)
}

func (s *service) GetPackage(ctx context.Context, id uuid.UUID) (PackageDTO, error) {
	pkg, err := s.repo.FindPackageByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PackageDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "package not found")
		}
		return PackageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load package")
	}
	return packageToDTO(*pkg), nil
}

func (s *service) ListPackages(ctx context.Context, filter ListPackagesFilter) (PackagesPageDTO, error) {
	rows, nextCursor, total, err := s.repo.ListPackages(ctx, filter)
	if err != nil {
		return PackagesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list packages")
	}
	items := make([]PackageDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, packageToDTO(row))
	}
	return PackagesPageDTO{Items: items, NextCursor: nextCursor, Total: total}, nil
}

func (s *service) UpdatePackage(ctx context.Context, id uuid.UUID, input UpdatePackageInput) (PackageDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return PackageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "package name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.TotalPriceCents != nil {
		if *input.TotalPriceCents < 0 {
			return PackageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		updates["total_price_cents"] = *input.TotalPriceCents
	}
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return PackageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
		}
		updates["currency"] = *input.Currency
	}
	if input.Available != nil {
		updates["available"] = *input.Available
	}
	if len(updates) == 0 {
		return s.GetPackage(ctx, id)
	}

	if _, err := s.GetPackage(ctx, id); err != nil {
		return PackageDTO{}, err
	}
	if err := s.repo.UpdatePackage(ctx, id, updates); err != nil {
		return PackageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update package")
	}
	return s.GetPackage(ctx, id)
}

func (s *service) DeletePackage(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetPackage(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeletePackage(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete package")
	}
	return nil
}
