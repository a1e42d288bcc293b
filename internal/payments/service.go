package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/internal/orders"
	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
	"github.com/mcastellan/terravia-backend/pkg/outbox"
	"github.com/mcastellan/terravia-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes payment processing and queries.
type Service interface {
	ProcessPayment(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, input ProcessInput) (PaymentDTO, error)
	GetPayment(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, paymentID uuid.UUID) (PaymentDTO, error)
	ListForOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) ([]PaymentDTO, error)
	ListPayments(ctx context.Context, filter ListFilter) (PaymentsPageDTO, error)
	CancelPayment(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, paymentID uuid.UUID) (PaymentDTO, error)
	RefundPayment(ctx context.Context, actor outbox.ActorRef, paymentID uuid.UUID, reason string) (PaymentDTO, error)
}

// ServiceParams groups dependencies for the payments service.
type ServiceParams struct {
	Tx         txRunner
	Repo       *Repository
	OrdersRepo *orders.Repository
	Gateway    Gateway
	Outbox     outboxPublisher
}

type service struct {
	tx         txRunner
	repo       *Repository
	ordersRepo *orders.Repository
	gateway    Gateway
	outbox     outboxPublisher
}

// NewService builds a payments service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payments repo is required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox publisher is required")
	}
	return &service{
		tx:         params.Tx,
		repo:       params.Repo,
		ordersRepo: params.OrdersRepo,
		gateway:    params.Gateway,
		outbox:     params.Outbox,
	}, nil
}

// ProcessPayment settles an order. The order row is locked for the
// duration of the transaction, so two simultaneous attempts serialize
// and the loser sees the order already PAID.
func (s *service) ProcessPayment(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, input ProcessInput) (PaymentDTO, error) {
	if input.OrderID == uuid.Nil {
		return PaymentDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Method.IsValid() {
		return PaymentDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	var payment models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.ordersRepo.FindByIDForUpdate(ctx, tx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != actorID && !orders.IsStaff(actorRole) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not payable").
				WithDetails(map[string]any{"status": order.Status})
		}

		result, err := s.gateway.Charge(ctx, ChargeRequest{
			OrderID:     order.ID,
			AmountCents: order.TotalAmountCents,
			Currency:    order.Currency,
			Method:      input.Method,
			Details:     input.Details,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "charge gateway")
		}

		payment = models.Payment{
			OrderID:     order.ID,
			UserID:      order.UserID,
			AmountCents: order.TotalAmountCents,
			Currency:    order.Currency,
			Method:      input.Method,
			Details:     input.Details,
		}
		if !result.Approved {
			payment.Status = enums.PaymentStatusCancelled
			if err := s.repo.WithTx(tx).Create(ctx, &payment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record declined payment")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment declined").
				WithDetails(map[string]any{"reason": result.Reason})
		}

		now := time.Now().UTC()
		payment.Status = enums.PaymentStatusCompleted
		payment.GatewayRef = &result.Reference
		payment.ProcessedAt = &now
		if err := s.repo.WithTx(tx).Create(ctx, &payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}

		affected, err := s.ordersRepo.WithTx(tx).UpdateStatusIf(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaid)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: actorRole.String()},
			Data: payloads.OrderPaidEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				PaymentID:   payment.ID,
				AmountCents: payment.AmountCents,
				Currency:    payment.Currency,
				Method:      payment.Method,
				PaidAt:      now,
			},
		})
	})
	if err != nil {
		return PaymentDTO{}, err
	}
	return toDTO(payment), nil
}

func (s *service) GetPayment(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, paymentID uuid.UUID) (PaymentDTO, error) {
	payment, err := s.loadForActor(ctx, actorID, actorRole, paymentID)
	if err != nil {
		return PaymentDTO{}, err
	}
	return toDTO(*payment), nil
}

func (s *service) ListForOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) ([]PaymentDTO, error) {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != actorID && !orders.IsStaff(actorRole) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}

	rows, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	dtos := make([]PaymentDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toDTO(row))
	}
	return dtos, nil
}

func (s *service) ListPayments(ctx context.Context, filter ListFilter) (PaymentsPageDTO, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return PaymentsPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	rows, nextCursor, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return PaymentsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	items := make([]PaymentDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDTO(row))
	}
	return PaymentsPageDTO{Items: items, NextCursor: nextCursor, Total: total}, nil
}

// CancelPayment aborts a pending payment. Settled payments go through
// RefundPayment instead.
func (s *service) CancelPayment(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, paymentID uuid.UUID) (PaymentDTO, error) {
	payment, err := s.loadForActor(ctx, actorID, actorRole, paymentID)
	if err != nil {
		return PaymentDTO{}, err
	}
	if payment.Status != enums.PaymentStatusPending {
		return PaymentDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending payments can be cancelled").
			WithDetails(map[string]any{"status": payment.Status})
	}

	affected, err := s.repo.UpdateStatusIf(ctx, paymentID, enums.PaymentStatusPending, enums.PaymentStatusCancelled, nil)
	if err != nil {
		return PaymentDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel payment")
	}
	if affected == 0 {
		return PaymentDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "payment changed concurrently")
	}
	return s.reload(ctx, paymentID)
}

// RefundPayment marks a settled payment refunded. The order keeps its
// status; staff decide separately whether to cancel the trip.
func (s *service) RefundPayment(ctx context.Context, actor outbox.ActorRef, paymentID uuid.UUID, reason string) (PaymentDTO, error) {
	if reason == "" {
		return PaymentDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "refund reason is required")
	}

	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "payment not found")
		}
		return PaymentDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status != enums.PaymentStatusCompleted {
		return PaymentDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed payments can be refunded").
			WithDetails(map[string]any{"status": payment.Status})
	}

	affected, err := s.repo.UpdateStatusIf(ctx, paymentID, enums.PaymentStatusCompleted, enums.PaymentStatusRefunded,
		map[string]any{"refund_reason": reason})
	if err != nil {
		return PaymentDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund payment")
	}
	if affected == 0 {
		return PaymentDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "payment changed concurrently")
	}
	return s.reload(ctx, paymentID)
}

func (s *service) loadForActor(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.UserID != actorID && !orders.IsStaff(actorRole) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to user")
	}
	return payment, nil
}

func (s *service) reload(ctx context.Context, paymentID uuid.UUID) (PaymentDTO, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return PaymentDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
	}
	return toDTO(*payment), nil
}
