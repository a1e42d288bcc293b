package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/logger"
	"github.com/mcastellan/terravia-backend/pkg/outbox"
)

type recordingProcessor struct {
	events []enums.OutboxEventType
	err    error
}

func (p *recordingProcessor) Process(_ context.Context, eventType enums.OutboxEventType, _ outbox.PayloadEnvelope) error {
	p.events = append(p.events, eventType)
	return p.err
}

func newTestWorker(processor Processor) *Worker {
	return &Worker{
		processor: processor,
		logg:      logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
	}
}

func domainMessage(t *testing.T, eventType string) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	return &gcppubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event_type": eventType},
	}
}

func TestProcessAcksHandledMessage(t *testing.T) {
	processor := &recordingProcessor{}
	worker := newTestWorker(processor)

	result := worker.process(context.Background(), domainMessage(t, "order.paid"))
	assert.False(t, result.nack)
	assert.Equal(t, []enums.OutboxEventType{enums.EventOrderPaid}, processor.events)
}

func TestProcessNacksOnProcessorError(t *testing.T) {
	processor := &recordingProcessor{err: errors.New("redis down")}
	worker := newTestWorker(processor)

	result := worker.process(context.Background(), domainMessage(t, "order.created"))
	assert.True(t, result.nack)
}

func TestProcessDropsMalformedPayload(t *testing.T) {
	processor := &recordingProcessor{}
	worker := newTestWorker(processor)

	msg := &gcppubsub.Message{
		Data:       []byte("not-json"),
		Attributes: map[string]string{"event_type": "order.created"},
	}
	result := worker.process(context.Background(), msg)
	assert.False(t, result.nack)
	assert.Empty(t, processor.events)
}

func TestProcessDropsUnknownEventType(t *testing.T) {
	processor := &recordingProcessor{}
	worker := newTestWorker(processor)

	result := worker.process(context.Background(), domainMessage(t, "order.exploded"))
	assert.False(t, result.nack)
	assert.Empty(t, processor.events)
}

func TestDecodeFallsBackToAttributeEventID(t *testing.T) {
	worker := newTestWorker(&recordingProcessor{})

	data, err := json.Marshal(outbox.PayloadEnvelope{Version: 1, Data: json.RawMessage(`{}`)})
	require.NoError(t, err)

	eventID := uuid.NewString()
	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": "order.created",
			"event_id":   eventID,
		},
	}
	eventType, envelope, err := worker.decode(msg)
	require.NoError(t, err)
	assert.Equal(t, enums.EventOrderCreated, eventType)
	assert.Equal(t, eventID, envelope.EventID)

	msg.Attributes["event_id"] = ""
	_, _, err = worker.decode(msg)
	require.Error(t, err)
}
