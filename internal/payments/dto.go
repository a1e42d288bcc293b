package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/types"
)

// PaymentDTO is the public projection of a payment.
type PaymentDTO struct {
	ID           uuid.UUID           `json:"id"`
	OrderID      uuid.UUID           `json:"order_id"`
	UserID       uuid.UUID           `json:"user_id"`
	AmountCents  int64               `json:"amount_cents"`
	Currency     enums.Currency      `json:"currency"`
	Method       enums.PaymentMethod `json:"method"`
	Status       enums.PaymentStatus `json:"status"`
	GatewayRef   *string             `json:"gateway_ref,omitempty"`
	RefundReason *string             `json:"refund_reason,omitempty"`
	ProcessedAt  *time.Time          `json:"processed_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// ProcessInput captures a payment request for an order.
type ProcessInput struct {
	OrderID uuid.UUID
	Method  enums.PaymentMethod
	Details types.PaymentDetails
}

// ListFilter narrows payment listings for staff queries.
type ListFilter struct {
	Status      *enums.PaymentStatus
	UserID      *uuid.UUID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Cursor      string
	Limit       int
}

// PaymentsPageDTO is a cursor-paginated payment listing.
type PaymentsPageDTO struct {
	Items      []PaymentDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
	Total      int64        `json:"total"`
}

func toDTO(p models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:           p.ID,
		OrderID:      p.OrderID,
		UserID:       p.UserID,
		AmountCents:  p.AmountCents,
		Currency:     p.Currency,
		Method:       p.Method,
		Status:       p.Status,
		GatewayRef:   p.GatewayRef,
		RefundReason: p.RefundReason,
		ProcessedAt:  p.ProcessedAt,
		CreatedAt:    p.CreatedAt,
	}
}
