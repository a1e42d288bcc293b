package payments

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

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  subtotal_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  total_amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  coupon_code TEXT,
  billing_info TEXT NOT NULL,
  internal_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  item_kind TEXT NOT NULL,
  item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  details TEXT,
  gateway_ref TEXT,
  refund_reason TEXT,
  processed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`}

	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedPayment(t *testing.T, db *gorm.DB, orderID, userID uuid.UUID, status enums.PaymentStatus, createdAt time.Time) models.Payment {
	t.Helper()
	payment := models.Payment{
		ID:          uuid.New(),
		OrderID:     orderID,
		UserID:      userID,
		AmountCents: 150_00,
		Currency:    enums.CurrencyUSD,
		Method:      enums.PaymentMethodCreditCard,
		Status:      status,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(&payment).Error)
	return payment
}

func TestCreateAssignsID(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	payment := models.Payment{
		OrderID:     uuid.New(),
		UserID:      uuid.New(),
		AmountCents: 99_00,
		Currency:    enums.CurrencyEUR,
		Method:      enums.PaymentMethodBankTransfer,
		Status:      enums.PaymentStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), &payment))
	assert.NotEqual(t, uuid.Nil, payment.ID)

	found, err := repo.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentMethodBankTransfer, found.Method)
}

func TestFindByOrderReturnsOldestFirst(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	orderID := uuid.New()
	userID := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	second := seedPayment(t, db, orderID, userID, enums.PaymentStatusCompleted, base.Add(time.Minute))
	first := seedPayment(t, db, orderID, userID, enums.PaymentStatusCancelled, base)
	seedPayment(t, db, uuid.New(), userID, enums.PaymentStatusPending, base)

	rows, err := repo.FindByOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)
}

func TestHasCompletedForOrder(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	orderID := uuid.New()
	now := time.Now().UTC()
	seedPayment(t, db, orderID, uuid.New(), enums.PaymentStatusCancelled, now)

	settled, err := repo.HasCompletedForOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.False(t, settled)

	seedPayment(t, db, orderID, uuid.New(), enums.PaymentStatusCompleted, now)

	settled, err = repo.HasCompletedForOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestUpdateStatusIfGuardsExpectedStatus(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	payment := seedPayment(t, db, uuid.New(), uuid.New(), enums.PaymentStatusCompleted, time.Now().UTC())

	affected, err := repo.UpdateStatusIf(context.Background(), payment.ID,
		enums.PaymentStatusPending, enums.PaymentStatusCancelled, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = repo.UpdateStatusIf(context.Background(), payment.ID,
		enums.PaymentStatusCompleted, enums.PaymentStatusRefunded,
		map[string]any{"refund_reason": "flight cancelled by carrier"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	reloaded, err := repo.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, reloaded.Status)
	require.NotNil(t, reloaded.RefundReason)
	assert.Equal(t, "flight cancelled by carrier", *reloaded.RefundReason)
}

func TestListFiltersByStatusAndPaginates(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	base := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedPayment(t, db, uuid.New(), userID, enums.PaymentStatusCompleted, base.Add(time.Duration(i)*time.Minute))
	}
	seedPayment(t, db, uuid.New(), userID, enums.PaymentStatusPending, base)

	completed := enums.PaymentStatusCompleted
	rows, nextCursor, total, err := repo.List(context.Background(), ListFilter{Status: &completed, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.NotEmpty(t, nextCursor)
	assert.Equal(t, int64(3), total)

	rows, nextCursor, _, err = repo.List(context.Background(), ListFilter{Status: &completed, Cursor: nextCursor, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Empty(t, nextCursor)

	from := base.Add(30 * time.Second)
	to := base.Add(90 * time.Second)
	rows, _, total, err = repo.List(context.Background(), ListFilter{CreatedFrom: &from, CreatedTo: &to})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(1), total)
}
