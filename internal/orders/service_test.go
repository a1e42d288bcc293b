package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
	"github.com/mcastellan/terravia-backend/pkg/outbox"
)

type txDB struct {
	db *gorm.DB
}

func (t *txDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

func newOrdersService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupOrdersTestDB(t)
	svc, err := NewService(ServiceParams{
		Tx:     &txDB{db: db},
		Repo:   NewRepository(db),
		Outbox: outbox.NewService(outbox.NewRepository(db), nil),
	})
	require.NoError(t, err)
	return svc, db
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, code, typed.Code())
}

func countOutboxEvents(t *testing.T, db *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    enums.OrderStatus
		to      enums.OrderStatus
		allowed bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusPaid, true},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusPending, enums.OrderStatusConfirmed, false},
		{enums.OrderStatusPaid, enums.OrderStatusConfirmed, true},
		{enums.OrderStatusPaid, enums.OrderStatusCancelled, true},
		{enums.OrderStatusPaid, enums.OrderStatusPending, false},
		{enums.OrderStatusConfirmed, enums.OrderStatusCancelled, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestGetOrderForbiddenForForeignUser(t *testing.T) {
	svc, db := newOrdersService(t)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, db, owner, enums.OrderStatusPending)

	dto, err := svc.GetOrder(ctx, owner, enums.UserRoleClient, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, dto.ID)

	_, err = svc.GetOrder(ctx, uuid.New(), enums.UserRoleClient, order.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)

	dto, err = svc.GetOrder(ctx, uuid.New(), enums.UserRoleAgent, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, dto.ID)
}

func TestUpdateStatusEmitsEvent(t *testing.T) {
	svc, db := newOrdersService(t)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPaid)
	actor := outbox.ActorRef{UserID: uuid.New(), Role: enums.UserRoleAdmin.String()}

	dto, err := svc.UpdateStatus(ctx, actor, order.ID, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, dto.Status)

	assert.Equal(t, int64(1), countOutboxEvents(t, db, enums.EventOrderStatusChanged))
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	svc, db := newOrdersService(t)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPending)
	actor := outbox.ActorRef{UserID: uuid.New(), Role: enums.UserRoleAdmin.String()}

	_, err := svc.UpdateStatus(ctx, actor, order.ID, enums.OrderStatusConfirmed)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	assert.Equal(t, int64(0), countOutboxEvents(t, db, enums.EventOrderStatusChanged))
}

func TestCancelOrderByOwner(t *testing.T) {
	svc, db := newOrdersService(t)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, db, owner, enums.OrderStatusPending)

	dto, err := svc.CancelOrder(ctx, owner, enums.UserRoleClient, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
	assert.Equal(t, int64(1), countOutboxEvents(t, db, enums.EventOrderStatusChanged))
}

func TestCancelPaidOrderRequiresStaff(t *testing.T) {
	svc, db := newOrdersService(t)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, db, owner, enums.OrderStatusPaid)

	_, err := svc.CancelOrder(ctx, owner, enums.UserRoleClient, order.ID)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	dto, err := svc.CancelOrder(ctx, uuid.New(), enums.UserRoleAdmin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
}

func TestCancelConfirmedOrderRejected(t *testing.T) {
	svc, db := newOrdersService(t)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, db, owner, enums.OrderStatusConfirmed)

	_, err := svc.CancelOrder(ctx, uuid.New(), enums.UserRoleAdmin, order.ID)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestListMyOrdersRequiresUser(t *testing.T) {
	svc, _ := newOrdersService(t)

	_, err := svc.ListMyOrders(context.Background(), uuid.Nil, "", 10)
	assertCode(t, err, pkgerrors.CodeValidation)
}
