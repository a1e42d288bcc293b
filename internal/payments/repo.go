package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/pagination"
)

// Repository encapsulates payment persistence.
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

func (r *Repository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// HasCompletedForOrder reports whether the order already settled.
func (r *Repository) HasCompletedForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, enums.PaymentStatusCompleted).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateStatusIf moves the payment to newStatus only while it still
// holds expectedStatus.
func (r *Repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expectedStatus, newStatus enums.PaymentStatus, extra map[string]any) (int64, error) {
	updates := map[string]any{"status": newStatus}
	for key, value := range extra {
		updates[key] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Payment, string, int64, error) {
	normalizedLimit := pagination.NormalizeLimit(filter.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(filter.Limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(filter.Cursor))
	if err != nil {
		return nil, "", 0, err
	}

	query := r.db.WithContext(ctx).Model(&models.Payment{})
	countQuery := r.db.WithContext(ctx).Model(&models.Payment{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
		countQuery = countQuery.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
		countQuery = countQuery.Where("user_id = ?", *filter.UserID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
		countQuery = countQuery.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
		countQuery = countQuery.Where("created_at <= ?", *filter.CreatedTo)
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Payment
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
