package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// NotificationDTO is the public projection of an in-app notification.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Subject   string                 `json:"subject"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationsPageDTO is a cursor-paginated notification listing.
type NotificationsPageDTO struct {
	Items      []NotificationDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
	Total      int64             `json:"total"`
}

func toDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Subject:   n.Subject,
		Message:   n.Message,
		Read:      n.ReadAt != nil,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
