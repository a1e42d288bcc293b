package idempotency

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	return s.values[key], nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = fmt.Sprint(value)
	s.ttls[key] = ttl
	return true, nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("tv:idempotency:%s:%s", scope, id)
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestCheckAndMarkProcessedFirstTime(t *testing.T) {
	store := newMemoryStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "notifications", eventID)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = manager.CheckAndMarkProcessed(context.Background(), "notifications", eventID)
	require.NoError(t, err)
	assert.True(t, already)
}

func TestMarkersAreScopedPerConsumer(t *testing.T) {
	manager, err := NewManager(newMemoryStore(), time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "notifications", eventID)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = manager.CheckAndMarkProcessed(context.Background(), "billing", eventID)
	require.NoError(t, err)
	assert.False(t, already)
}

func TestDeleteAllowsReplay(t *testing.T) {
	manager, err := NewManager(newMemoryStore(), time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	_, err = manager.CheckAndMarkProcessed(context.Background(), "notifications", eventID)
	require.NoError(t, err)

	require.NoError(t, manager.Delete(context.Background(), "notifications", eventID))

	already, err := manager.CheckAndMarkProcessed(context.Background(), "notifications", eventID)
	require.NoError(t, err)
	assert.False(t, already)
}

func TestMarkerTTLPassedToStore(t *testing.T) {
	store := newMemoryStore()
	manager, err := NewManager(store, 30*24*time.Hour)
	require.NoError(t, err)

	_, err = manager.CheckAndMarkProcessed(context.Background(), "notifications", uuid.New())
	require.NoError(t, err)

	for _, ttl := range store.ttls {
		assert.Equal(t, 30*24*time.Hour, ttl)
	}
	assert.Len(t, store.ttls, 1)
}

func TestGuardsInvalidInput(t *testing.T) {
	manager, err := NewManager(newMemoryStore(), time.Hour)
	require.NoError(t, err)

	_, err = manager.CheckAndMarkProcessed(context.Background(), "", uuid.New())
	assert.Error(t, err)

	_, err = manager.CheckAndMarkProcessed(context.Background(), "notifications", uuid.Nil)
	assert.Error(t, err)

	_, err = NewManager(nil, time.Hour)
	assert.Error(t, err)
}
