package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
)

type productFinder interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the per-user saved products list.
type Service interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	ListItems(ctx context.Context, userID uuid.UUID, cursor string, limit int) (ItemsPageDTO, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo    *Repository
	Catalog productFinder
}

type service struct {
	repo    *Repository
	catalog productFinder
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{repo: params.Repo, catalog: params.Catalog}, nil
}

// AddItem likes a product. Re-liking an already saved product succeeds
// without creating a second row.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.catalog.FindProductByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.AddItem(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	affected, err := s.repo.RemoveItem(ctx, userID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	return nil
}

func (s *service) ListItems(ctx context.Context, userID uuid.UUID, cursor string, limit int) (ItemsPageDTO, error) {
	rows, nextCursor, total, err := s.repo.ListItems(ctx, userID, cursor, limit)
	if err != nil {
		return ItemsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDTO(row))
	}
	return ItemsPageDTO{Items: items, NextCursor: nextCursor, Total: total}, nil
}
