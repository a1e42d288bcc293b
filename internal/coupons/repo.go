package coupons

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
)

// Repository encapsulates coupon persistence.
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

func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	coupon.Code = NormalizeCode(coupon.Code)
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", NormalizeCode(code)).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Coupon, error) {
	query := r.db.WithContext(ctx).Model(&models.Coupon{}).Order("created_at DESC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.Coupon
	err := query.Find(&rows).Error
	return rows, err
}

// IncrementUsesIfAvailable bumps current_uses only while the cap holds.
// Returning zero rows means the coupon is inactive or exhausted; the
// guard in the WHERE clause is what keeps concurrent checkouts from
// pushing current_uses past max_uses.
func (r *Repository) IncrementUsesIfAvailable(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
UPDATE coupons
SET current_uses = current_uses + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND active AND (max_uses IS NULL OR current_uses < max_uses)`,
		id,
	)
	return result.RowsAffected, result.Error
}

// NormalizeCode canonicalizes coupon codes for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
