package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/logger"
	"github.com/mcastellan/terravia-backend/pkg/mail"
	"github.com/mcastellan/terravia-backend/pkg/outbox"
	"github.com/mcastellan/terravia-backend/pkg/outbox/payloads"
)

const notificationsConsumerName = "notifications"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Consumer turns order lifecycle events into in-app notification rows
// and outgoing email, honoring Redis idempotency per event ID.
type Consumer struct {
	repo         *Repository
	emailConfigs *EmailConfigRepository
	users        userFinder
	mailer       mail.Sender
	manager      idempotencyChecker
	logg         *logger.Logger
	eventFilter  map[enums.OutboxEventType]struct{}
}

// NewConsumer builds a new notifications consumer.
func NewConsumer(repo *Repository, emailConfigs *EmailConfigRepository, users userFinder, mailer mail.Sender, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repo required")
	}
	if emailConfigs == nil {
		return nil, fmt.Errorf("email config repo required")
	}
	if users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		emailConfigs: emailConfigs,
		users:        users,
		mailer:       mailer,
		manager:      manager,
		logg:         logg,
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventOrderCreated:       {},
			enums.EventOrderPaid:          {},
			enums.EventOrderStatusChanged: {},
		},
	}, nil
}

// Process records a notification row for the event's user and sends the
// matching email. The notification row is the source of record; a mail
// delivery failure is logged and does not replay the event.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by notifications consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, notificationsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	content, err := buildContent(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to build notification content", err)
		_ = c.manager.Delete(ctx, notificationsConsumerName, eventID)
		return err
	}

	notification := &models.Notification{
		UserID:  content.userID,
		Type:    content.notificationType,
		Subject: content.subject,
		Message: content.message,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to create notification", err)
		_ = c.manager.Delete(ctx, notificationsConsumerName, eventID)
		return err
	}

	if err := c.sendEmail(ctx, content); err != nil {
		c.logg.Error(logCtx, "failed to send notification email", err)
	}

	c.logg.Info(logCtx, "notification recorded")
	return nil
}

func (c *Consumer) sendEmail(ctx context.Context, content notificationContent) error {
	user, err := c.users.FindByID(ctx, content.userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	subject := content.subject
	body := content.message
	var cc []string

	config, err := c.emailConfigs.FindByType(ctx, content.notificationType)
	switch {
	case err == nil:
		subject, err = renderTemplate(config.Subject, content.data)
		if err != nil {
			return fmt.Errorf("render subject: %w", err)
		}
		body, err = renderTemplate(config.BodyTemplate, content.data)
		if err != nil {
			return fmt.Errorf("render body: %w", err)
		}
		cc = config.CopyRecipients
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No enabled template configured; fall back to the in-app text.
	default:
		return fmt.Errorf("load email config: %w", err)
	}

	return c.mailer.Send(ctx, mail.Message{
		To:      []string{user.Email},
		CC:      cc,
		Subject: subject,
		Body:    body,
	})
}

type notificationContent struct {
	userID           uuid.UUID
	notificationType enums.NotificationType
	subject          string
	message          string
	data             map[string]any
}

func buildContent(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (notificationContent, error) {
	switch eventType {
	case enums.EventOrderCreated:
		var event payloads.OrderCreatedEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return notificationContent{}, fmt.Errorf("decode order created payload: %w", err)
		}
		return notificationContent{
			userID:           event.UserID,
			notificationType: enums.NotificationOrderCreated,
			subject:          fmt.Sprintf("Order %s received", event.OrderNumber),
			message: fmt.Sprintf("We received your order %s for %s. We will notify you once payment is confirmed.",
				event.OrderNumber, formatAmount(event.TotalAmountCents, event.Currency)),
			data: map[string]any{
				"OrderNumber": event.OrderNumber,
				"Total":       formatAmount(event.TotalAmountCents, event.Currency),
				"ItemCount":   event.ItemCount,
			},
		}, nil
	case enums.EventOrderPaid:
		var event payloads.OrderPaidEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return notificationContent{}, fmt.Errorf("decode order paid payload: %w", err)
		}
		return notificationContent{
			userID:           event.UserID,
			notificationType: enums.NotificationOrderPaid,
			subject:          fmt.Sprintf("Payment confirmed for order %s", event.OrderNumber),
			message: fmt.Sprintf("Your payment of %s for order %s was confirmed.",
				formatAmount(event.AmountCents, event.Currency), event.OrderNumber),
			data: map[string]any{
				"OrderNumber": event.OrderNumber,
				"Amount":      formatAmount(event.AmountCents, event.Currency),
				"Method":      string(event.Method),
			},
		}, nil
	case enums.EventOrderStatusChanged:
		var event payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return notificationContent{}, fmt.Errorf("decode order status payload: %w", err)
		}
		return notificationContent{
			userID:           event.UserID,
			notificationType: enums.NotificationOrderStatusUpdate,
			subject:          fmt.Sprintf("Order %s is now %s", event.OrderNumber, event.NewStatus),
			message: fmt.Sprintf("Your order %s changed from %s to %s.",
				event.OrderNumber, event.OldStatus, event.NewStatus),
			data: map[string]any{
				"OrderNumber": event.OrderNumber,
				"OldStatus":   string(event.OldStatus),
				"NewStatus":   string(event.NewStatus),
			},
		}, nil
	default:
		return notificationContent{}, fmt.Errorf("unsupported event type %q", eventType)
	}
}

func renderTemplate(text string, data map[string]any) (string, error) {
	tmpl, err := template.New("email").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatAmount(cents int64, currency enums.Currency) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, cents/100, cents%100)
}
