package notifications

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
)

// Service exposes user-facing notification queries.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, cursor string, limit int) (NotificationsPageDTO, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ServiceParams groups dependencies for the notifications service.
type ServiceParams struct {
	Repo *Repository
}

type service struct {
	repo *Repository
}

// NewService builds a notifications service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notifications repo is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, cursor string, limit int) (NotificationsPageDTO, error) {
	if userID == uuid.Nil {
		return NotificationsPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, nextCursor, total, err := s.repo.ListForUser(ctx, userID, unreadOnly, cursor, limit)
	if err != nil {
		return NotificationsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDTO(row))
	}
	return NotificationsPageDTO{Items: items, NextCursor: nextCursor, Total: total}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	affected, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return affected, nil
}
