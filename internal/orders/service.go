package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

// Service exposes order queries and lifecycle transitions.
type Service interface {
	GetOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (OrderDTO, error)
	GetOrderByNumber(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderNumber string) (OrderDTO, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, cursor string, limit int) (OrdersPageDTO, error)
	ListOrders(ctx context.Context, filter ListFilter) (OrdersPageDTO, error)
	UpdateStatus(ctx context.Context, actor outbox.ActorRef, orderID uuid.UUID, newStatus enums.OrderStatus) (OrderDTO, error)
	CancelOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (OrderDTO, error)
}

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	Tx     txRunner
	Repo   *Repository
	Outbox outboxPublisher
}

type service struct {
	tx     txRunner
	repo   *Repository
	outbox outboxPublisher
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox publisher is required")
	}
	return &service{tx: params.Tx, repo: params.Repo, outbox: params.Outbox}, nil
}

// IsStaff reports whether the role may see and manage any order.
func IsStaff(role enums.UserRole) bool {
	return role == enums.UserRoleAgent || role == enums.UserRoleAdmin
}

func (s *service) GetOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != actorID && !IsStaff(actorRole) {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return ToDTO(*order), nil
}

func (s *service) GetOrderByNumber(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderNumber string) (OrderDTO, error) {
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != actorID && !IsStaff(actorRole) {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return ToDTO(*order), nil
}

func (s *service) ListMyOrders(ctx context.Context, userID uuid.UUID, cursor string, limit int) (OrdersPageDTO, error) {
	if userID == uuid.Nil {
		return OrdersPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.ListOrders(ctx, ListFilter{UserID: &userID, Cursor: cursor, Limit: limit})
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) (OrdersPageDTO, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return OrdersPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	rows, nextCursor, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return OrdersPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	items := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToDTO(row))
	}
	return OrdersPageDTO{Items: items, NextCursor: nextCursor, Total: total}, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor outbox.ActorRef, orderID uuid.UUID, newStatus enums.OrderStatus) (OrderDTO, error) {
	if !newStatus.IsValid() {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if !CanTransition(order.Status, newStatus) {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
			WithDetails(map[string]any{"from": order.Status, "to": newStatus})
	}

	if err := s.transition(ctx, order.ID, order.OrderNumber, order.UserID, order.Status, newStatus, &actor); err != nil {
		return OrderDTO{}, err
	}

	updated, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return ToDTO(*updated), nil
}

// CancelOrder lets a customer cancel their own unpaid order. Staff may
// also cancel paid orders before confirmation.
func (s *service) CancelOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.UserID != actorID && !IsStaff(actorRole) {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.Status == enums.OrderStatusPaid && !IsStaff(actorRole) {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "paid orders can only be cancelled by staff")
	}
	if !CanTransition(order.Status, enums.OrderStatusCancelled) {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}

	actor := outbox.ActorRef{UserID: actorID, Role: actorRole.String()}
	if err := s.transition(ctx, order.ID, order.OrderNumber, order.UserID, order.Status, enums.OrderStatusCancelled, &actor); err != nil {
		return OrderDTO{}, err
	}

	updated, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return ToDTO(*updated), nil
}

func (s *service) transition(ctx context.Context, orderID uuid.UUID, orderNumber string, userID uuid.UUID, from, to enums.OrderStatus, actor *outbox.ActorRef) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).UpdateStatusIf(ctx, orderID, from, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         actor,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     orderID,
				OrderNumber: orderNumber,
				UserID:      userID,
				OldStatus:   from,
				NewStatus:   to,
				ChangedAt:   time.Now().UTC(),
			},
		})
	})
}

// CanTransition encodes the order state machine. CONFIRMED and
// CANCELLED are terminal.
func CanTransition(from, to enums.OrderStatus) bool {
	switch from {
	case enums.OrderStatusPending:
		return to == enums.OrderStatusPaid || to == enums.OrderStatusCancelled
	case enums.OrderStatusPaid:
		return to == enums.OrderStatusConfirmed || to == enums.OrderStatusCancelled
	default:
		return false
	}
}
