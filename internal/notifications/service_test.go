package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
)

func TestListRequiresUser(t *testing.T) {
	db := setupNotificationsTestDB(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(db)})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), uuid.Nil, false, "", 10)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestMarkReadUnknownNotification(t *testing.T) {
	db := setupNotificationsTestDB(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(db)})
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMarkAllReadReturnsCount(t *testing.T) {
	db := setupNotificationsTestDB(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(db)})
	require.NoError(t, err)

	userID := uuid.New()
	now := time.Now().UTC()
	seedNotification(t, db, userID, false, now)
	seedNotification(t, db, userID, false, now.Add(time.Second))

	affected, err := svc.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	page, err := svc.List(context.Background(), userID, true, "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.Total)
}
