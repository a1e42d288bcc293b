package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/pagination"
)

// Repository encapsulates order persistence.
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

// Create inserts the order and its item snapshots in one call. IDs are
// assigned here so sqlite-backed tests don't depend on DB defaults.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate loads the order under a row lock. Must run inside a
// transaction; payment processing uses it to serialize settlement.
func (r *Repository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Order, string, int64, error) {
	normalizedLimit := pagination.NormalizeLimit(filter.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(filter.Limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(filter.Cursor))
	if err != nil {
		return nil, "", 0, err
	}

	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	countQuery := r.db.WithContext(ctx).Model(&models.Order{})

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

	var rows []models.Order
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

// ApplyCoupon attaches a coupon to a pending order that has none yet.
// Zero rows means the order was paid, cancelled or couponed concurrently.
func (r *Repository) ApplyCoupon(ctx context.Context, id uuid.UUID, code string, discountCents, totalCents int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND coupon_code IS NULL", id, enums.OrderStatusPending).
		Updates(map[string]any{
			"coupon_code":        code,
			"discount_cents":     discountCents,
			"total_amount_cents": totalCents,
		})
	return result.RowsAffected, result.Error
}

// UpdateStatusIf moves the order to newStatus only while it still holds
// expectedStatus. Zero rows means a concurrent writer got there first.
func (r *Repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expectedStatus, newStatus enums.OrderStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(map[string]any{"status": newStatus})
	return result.RowsAffected, result.Error
}
