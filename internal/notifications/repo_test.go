package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  subject TEXT NOT NULL,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS email_configs (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL UNIQUE,
  subject TEXT NOT NULL,
  body_template TEXT NOT NULL,
  copy_recipients TEXT,
  enabled INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`}

	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, read bool, createdAt time.Time) models.Notification {
	t.Helper()
	notification := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      enums.NotificationOrderCreated,
		Subject:   "Order received",
		Message:   "We received your order.",
		CreatedAt: createdAt,
	}
	if read {
		at := createdAt.Add(time.Minute)
		notification.ReadAt = &at
	}
	require.NoError(t, db.Create(&notification).Error)
	return notification
}

func TestListForUserUnreadOnly(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	seedNotification(t, db, userID, true, base)
	unread := seedNotification(t, db, userID, false, base.Add(time.Minute))
	seedNotification(t, db, uuid.New(), false, base)

	rows, _, total, err := repo.ListForUser(context.Background(), userID, true, "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, unread.ID, rows[0].ID)
	assert.Equal(t, int64(1), total)

	rows, _, total, err = repo.ListForUser(context.Background(), userID, false, "", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int64(2), total)
}

func TestMarkReadOnlyOnceAndOnlyForOwner(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	notification := seedNotification(t, db, userID, false, time.Now().UTC())

	affected, err := repo.MarkRead(context.Background(), uuid.New(), notification.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = repo.MarkRead(context.Background(), userID, notification.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.MarkRead(context.Background(), userID, notification.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestMarkAllReadCountsTouchedRows(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC()
	seedNotification(t, db, userID, false, now)
	seedNotification(t, db, userID, false, now.Add(time.Second))
	seedNotification(t, db, userID, true, now)

	affected, err := repo.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	affected, err = repo.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestEmailConfigUpsertReplacesByType(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewEmailConfigRepository(db)

	first := &models.EmailConfig{
		Type:         enums.NotificationOrderPaid,
		Subject:      "Paid",
		BodyTemplate: "Order {{.OrderNumber}} paid",
		Enabled:      true,
	}
	require.NoError(t, repo.Upsert(context.Background(), first))

	second := &models.EmailConfig{
		Type:         enums.NotificationOrderPaid,
		Subject:      "Payment confirmed",
		BodyTemplate: "We confirmed {{.OrderNumber}}",
		Enabled:      true,
	}
	require.NoError(t, repo.Upsert(context.Background(), second))

	config, err := repo.FindByType(context.Background(), enums.NotificationOrderPaid)
	require.NoError(t, err)
	assert.Equal(t, "Payment confirmed", config.Subject)

	var count int64
	require.NoError(t, db.Model(&models.EmailConfig{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindByTypeSkipsDisabledConfigs(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewEmailConfigRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), &models.EmailConfig{
		Type:         enums.NotificationOrderCreated,
		Subject:      "Created",
		BodyTemplate: "body",
		Enabled:      false,
	}))

	_, err := repo.FindByType(context.Background(), enums.NotificationOrderCreated)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
