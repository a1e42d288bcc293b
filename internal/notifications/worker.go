package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/logger"
	"github.com/mcastellan/terravia-backend/pkg/outbox"
)

// Processor handles one decoded domain event.
type Processor interface {
	Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error
}

// Worker consumes domain events from Pub/Sub and feeds them to the
// notification consumer.
type Worker struct {
	subscription *gcppubsub.Subscriber
	processor    Processor
	logg         *logger.Logger
}

func NewWorker(subscription *gcppubsub.Subscriber, processor Processor, logg *logger.Logger) (*Worker, error) {
	if subscription == nil {
		return nil, errors.New("domain subscription is required")
	}
	if processor == nil {
		return nil, errors.New("event processor is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	return &Worker{
		subscription: subscription,
		processor:    processor,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes messages until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return w.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if w.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (w *Worker) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{
		"message_id": msg.ID,
	}
	eventType, envelope, err := w.decode(msg)
	if err != nil {
		// Malformed messages never become valid; drop them.
		fields["error"] = err.Error()
		w.logg.Warn(w.logg.WithFields(ctx, fields), "invalid domain event message")
		return processResult{}
	}

	fields["event_id"] = envelope.EventID
	fields["event_type"] = eventType
	fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	logCtx := w.logg.WithFields(ctx, fields)

	if err := w.processor.Process(logCtx, eventType, envelope); err != nil {
		w.logg.Error(logCtx, "domain event processing failed", err)
		return processResult{nack: true}
	}

	return processResult{}
}

func (w *Worker) decode(msg *gcppubsub.Message) (enums.OutboxEventType, outbox.PayloadEnvelope, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return "", envelope, fmt.Errorf("decode payload envelope: %w", err)
	}

	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		return "", envelope, fmt.Errorf("event_type: %w", err)
	}

	if strings.TrimSpace(envelope.EventID) == "" {
		envelope.EventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if envelope.EventID == "" {
		return "", envelope, errors.New("event_id missing")
	}

	return eventType, envelope, nil
}
