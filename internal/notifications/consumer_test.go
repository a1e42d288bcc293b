package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/logger"
	"github.com/mcastellan/terravia-backend/pkg/mail"
	"github.com/mcastellan/terravia-backend/pkg/outbox"
	"github.com/mcastellan/terravia-backend/pkg/outbox/payloads"
)

type stubIdempotency struct {
	processed map[uuid.UUID]bool
	deleted   []uuid.UUID
}

func (s *stubIdempotency) CheckAndMarkProcessed(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	if s.processed[eventID] {
		return true, nil
	}
	s.processed[eventID] = true
	return false, nil
}

func (s *stubIdempotency) Delete(_ context.Context, _ string, eventID uuid.UUID) error {
	s.deleted = append(s.deleted, eventID)
	delete(s.processed, eventID)
	return nil
}

type stubUserFinder struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserFinder) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type captureMailer struct {
	sent []mail.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type consumerFixture struct {
	consumer    *Consumer
	db          *gorm.DB
	idempotency *stubIdempotency
	mailer      *captureMailer
	userID      uuid.UUID
}

func newConsumerFixture(t *testing.T) *consumerFixture {
	t.Helper()

	db := setupNotificationsTestDB(t)
	userID := uuid.New()
	users := &stubUserFinder{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "ana@example.com", FirstName: "Ana", LastName: "Suarez"},
	}}
	idempotency := &stubIdempotency{processed: map[uuid.UUID]bool{}}
	mailer := &captureMailer{}
	logg := logger.New(logger.Options{ServiceName: "notifications-test", Output: io.Discard})

	consumer, err := NewConsumer(NewRepository(db), NewEmailConfigRepository(db), users, mailer, idempotency, logg)
	require.NoError(t, err)

	return &consumerFixture{
		consumer:    consumer,
		db:          db,
		idempotency: idempotency,
		mailer:      mailer,
		userID:      userID,
	}
}

func orderCreatedEnvelope(t *testing.T, userID uuid.UUID) outbox.PayloadEnvelope {
	t.Helper()
	data, err := json.Marshal(payloads.OrderCreatedEvent{
		OrderID:          uuid.New(),
		OrderNumber:      "ORD-20260501-AAAA1111",
		UserID:           userID,
		TotalAmountCents: 150_00,
		Currency:         enums.CurrencyUSD,
		ItemCount:        2,
	})
	require.NoError(t, err)
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

func (f *consumerFixture) notificationCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&count).Error)
	return count
}

func TestProcessRecordsNotificationAndSendsEmail(t *testing.T) {
	f := newConsumerFixture(t)

	envelope := orderCreatedEnvelope(t, f.userID)
	require.NoError(t, f.consumer.Process(context.Background(), enums.EventOrderCreated, envelope))

	assert.Equal(t, int64(1), f.notificationCount(t))

	var notification models.Notification
	require.NoError(t, f.db.First(&notification).Error)
	assert.Equal(t, f.userID, notification.UserID)
	assert.Equal(t, enums.NotificationOrderCreated, notification.Type)
	assert.Contains(t, notification.Subject, "ORD-20260501-AAAA1111")

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, []string{"ana@example.com"}, f.mailer.sent[0].To)
}

func TestProcessSkipsAlreadyProcessedEvent(t *testing.T) {
	f := newConsumerFixture(t)

	envelope := orderCreatedEnvelope(t, f.userID)
	require.NoError(t, f.consumer.Process(context.Background(), enums.EventOrderCreated, envelope))
	require.NoError(t, f.consumer.Process(context.Background(), enums.EventOrderCreated, envelope))

	assert.Equal(t, int64(1), f.notificationCount(t))
	assert.Len(t, f.mailer.sent, 1)
}

func TestProcessIgnoresUnhandledEventTypes(t *testing.T) {
	f := newConsumerFixture(t)

	envelope := outbox.PayloadEnvelope{EventID: uuid.NewString(), Data: []byte(`{}`)}
	require.NoError(t, f.consumer.Process(context.Background(), enums.OutboxEventType("inventory.synced"), envelope))

	assert.Equal(t, int64(0), f.notificationCount(t))
	assert.Empty(t, f.mailer.sent)
}

func TestProcessToleratesEmailFailure(t *testing.T) {
	f := newConsumerFixture(t)
	f.mailer.err = errors.New("smtp unavailable")

	envelope := orderCreatedEnvelope(t, f.userID)
	require.NoError(t, f.consumer.Process(context.Background(), enums.EventOrderCreated, envelope))

	assert.Equal(t, int64(1), f.notificationCount(t))
}

func TestProcessReleasesIdempotencyMarkerOnCreateFailure(t *testing.T) {
	f := newConsumerFixture(t)
	require.NoError(t, f.db.Exec("DROP TABLE notifications").Error)

	envelope := orderCreatedEnvelope(t, f.userID)
	err := f.consumer.Process(context.Background(), enums.EventOrderCreated, envelope)
	require.Error(t, err)

	require.Len(t, f.idempotency.deleted, 1)
	assert.Equal(t, envelope.EventID, f.idempotency.deleted[0].String())
}

func TestProcessRendersConfiguredTemplate(t *testing.T) {
	f := newConsumerFixture(t)

	require.NoError(t, NewEmailConfigRepository(f.db).Upsert(context.Background(), &models.EmailConfig{
		Type:         enums.NotificationOrderPaid,
		Subject:      "Payment received for {{.OrderNumber}}",
		BodyTemplate: "We charged {{.Amount}} via {{.Method}}.",
		Enabled:      true,
	}))

	data, err := json.Marshal(payloads.OrderPaidEvent{
		OrderID:     uuid.New(),
		OrderNumber: "ORD-20260501-BBBB2222",
		UserID:      f.userID,
		PaymentID:   uuid.New(),
		AmountCents: 180_00,
		Currency:    enums.CurrencyUSD,
		Method:      enums.PaymentMethodCreditCard,
		PaidAt:      time.Now().UTC(),
	})
	require.NoError(t, err)

	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	require.NoError(t, f.consumer.Process(context.Background(), enums.EventOrderPaid, envelope))

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "Payment received for ORD-20260501-BBBB2222", f.mailer.sent[0].Subject)
	assert.Equal(t, "We charged USD 180.00 via credit_card.", f.mailer.sent[0].Body)
}

func TestFormatAmountHandlesNegativeCents(t *testing.T) {
	assert.Equal(t, "USD 12.05", formatAmount(12_05, enums.CurrencyUSD))
	assert.Equal(t, "USD -0.50", formatAmount(-50, enums.CurrencyUSD))
	assert.Equal(t, "EUR -3.25", formatAmount(-3_25, enums.CurrencyEUR))
	assert.Equal(t, "USD 0.00", formatAmount(0, enums.CurrencyUSD))
}
