package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/pagination"
)

// Repository encapsulates notification persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, cursor string, limit int) ([]models.Notification, string, int64, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return nil, "", 0, err
	}

	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	countQuery := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)

	if unreadOnly {
		query = query.Where("read_at IS NULL")
		countQuery = countQuery.Where("read_at IS NULL")
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Notification
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

func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", time.Now().UTC())
	return result.RowsAffected, result.Error
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now().UTC())
	return result.RowsAffected, result.Error
}

// EmailConfigRepository reads the per-type email templates.
type EmailConfigRepository struct {
	db *gorm.DB
}

func NewEmailConfigRepository(db *gorm.DB) *EmailConfigRepository {
	return &EmailConfigRepository{db: db}
}

func (r *EmailConfigRepository) FindByType(ctx context.Context, notificationType enums.NotificationType) (*models.EmailConfig, error) {
	var config models.EmailConfig
	err := r.db.WithContext(ctx).
		Where("type = ? AND enabled", notificationType).
		First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *EmailConfigRepository) Upsert(ctx context.Context, config *models.EmailConfig) error {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Exec(`
INSERT INTO email_configs (id, type, subject, body_template, copy_recipients, enabled, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT (type)
DO UPDATE SET subject = excluded.subject, body_template = excluded.body_template,
              copy_recipients = excluded.copy_recipients, enabled = excluded.enabled,
              updated_at = CURRENT_TIMESTAMP`,
		config.ID, config.Type, config.Subject, config.BodyTemplate, config.CopyRecipients, config.Enabled,
	).Error
}
