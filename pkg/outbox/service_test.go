package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
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
);`).Error)
	return db
}

func TestEmitWrapsPayloadInEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	orderID := uuid.New()
	userID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{UserID: userID, Role: "CLIENT"},
			Data:          map[string]any{"order_id": orderID.String()},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, enums.EventOrderCreated, row.EventType)
	assert.Equal(t, orderID, row.AggregateID)
	assert.Nil(t, row.PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.False(t, envelope.OccurredAt.IsZero())
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, userID, envelope.Actor.UserID)

	var data map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, orderID.String(), data["order_id"])
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(setupOutboxTestDB(t)), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPaid})
	assert.Error(t, err)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	sentinel := errors.New("business rule failed")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregatePayment,
			AggregateID:   uuid.New(),
			Data:          map[string]any{},
		}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestFetchUnpublishedSkipsExhaustedAndPublished(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	insert := func() uuid.UUID {
		event := models.OutboxEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
		}
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return repo.Insert(tx, event)
		}))
		var row models.OutboxEvent
		require.NoError(t, db.Where("aggregate_id = ?", event.AggregateID).First(&row).Error)
		return row.ID
	}

	pending := insert()
	published := insert()
	exhausted := insert()

	require.NoError(t, repo.MarkPublished(published))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.MarkFailed(exhausted, errors.New("publish timeout")))
	}

	rows, err := repo.FetchUnpublished(10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, pending, rows[0].ID)

	var failed models.OutboxEvent
	require.NoError(t, db.First(&failed, "id = ?", exhausted).Error)
	assert.Equal(t, 3, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "publish timeout", *failed.LastError)
}
