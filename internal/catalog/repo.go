package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/pagination"
)

// Repository encapsulates catalog persistence for products and packages.
// Soft-deleted rows are filtered by gorm's DeletedAt handling on every
// query issued through the model.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DeleteProduct soft deletes the product. Order snapshots keep their own
// copy of the name and price, so history is unaffected.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

func (r *Repository) ListProducts(ctx context.Context, filter ListProductsFilter) ([]models.Product, string, int64, error) {
	normalizedLimit := pagination.NormalizeLimit(filter.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(filter.Limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(filter.Cursor))
	if err != nil {
		return nil, "", 0, err
	}

	query := r.db.WithContext(ctx).Model(&models.Product{})
	countQuery := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
		countQuery = countQuery.Where("type = ?", *filter.Type)
	}
	if filter.Available != nil {
		query = query.Where("available = ?", *filter.Available)
		countQuery = countQuery.Where("available = ?", *filter.Available)
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Product
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", 0, err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, "", 0, err
	}

	return rows, nextCursor, total, nil
}

func (r *Repository) CreatePackage(ctx context.Context, pkg *models.Package) error {
	if pkg.ID == uuid.Nil {
		pkg.ID = uuid.New()
	}
	for i := range pkg.Items {
		if pkg.Items[i].ID == uuid.Nil {
			pkg.Items[i].ID = uuid.New()
		}
		pkg.Items[i].PackageID = pkg.ID
	}
	return r.db.WithContext(ctx).Create(pkg).Error
}

func (r *Repository) FindPackageByID(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	var pkg models.Package
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		First(&pkg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *Repository) UpdatePackage(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Package{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *Repository) DeletePackage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Package{}, "id = ?", id).Error
}

func (r *Repository) ListPackages(ctx context.Context, filter ListPackagesFilter) ([]models.Package, string, int64, error) {
	normalizedLimit := pagination.NormalizeLimit(filter.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(filter.Limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(filter.Cursor))
	if err != nil {
		return nil, "", 0, err
	}

	query := r.db.WithContext(ctx).Model(&models.Package{}).Preload("Items.Product")
	countQuery := r.db.WithContext(ctx).Model(&models.Package{})

	if filter.Available != nil {
		query = query.Where("available = ?", *filter.Available)
		countQuery = countQuery.Where("available = ?", *filter.Available)
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Package
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", 0, err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, "", 0, err
	}

	return rows, nextCursor, total, nil
}

// ResolveSellable loads the priced view of a product or package by its
// (kind, id) reference. Soft-deleted rows resolve as not found.
func (r *Repository) ResolveSellable(ctx context.Context, kind enums.ItemKind, id uuid.UUID) (*Sellable, error) {
	switch kind {
	case enums.ItemKindProduct:
		product, err := r.FindProductByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Sellable{
			Kind:           enums.ItemKindProduct,
			ID:             product.ID,
			Name:           product.Name,
			UnitPriceCents: product.BasePriceCents,
			Currency:       product.Currency,
			Available:      product.Available,
		}, nil
	case enums.ItemKindPackage:
		pkg, err := r.FindPackageByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Sellable{
			Kind:           enums.ItemKindPackage,
			ID:             pkg.ID,
			Name:           pkg.Name,
			UnitPriceCents: pkg.TotalPriceCents,
			Currency:       pkg.Currency,
			Available:      pkg.Available,
		}, nil
	default:
		return nil, gorm.ErrInvalidValue
	}
}
