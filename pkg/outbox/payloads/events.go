package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once per successful checkout.
type OrderCreatedEvent struct {
	OrderID          uuid.UUID      `json:"order_id"`
	OrderNumber      string         `json:"order_number"`
	UserID           uuid.UUID      `json:"user_id"`
	TotalAmountCents int64          `json:"total_amount_cents"`
	Currency         enums.Currency `json:"currency"`
	ItemCount        int            `json:"item_count"`
	CouponCode       *string        `json:"coupon_code,omitempty"`
}

// OrderPaidEvent is emitted when a payment settles and the order
// transitions to PAID.
type OrderPaidEvent struct {
	OrderID     uuid.UUID           `json:"order_id"`
	OrderNumber string              `json:"order_number"`
	UserID      uuid.UUID           `json:"user_id"`
	PaymentID   uuid.UUID           `json:"payment_id"`
	AmountCents int64               `json:"amount_cents"`
	Currency    enums.Currency      `json:"currency"`
	Method      enums.PaymentMethod `json:"method"`
	PaidAt      time.Time           `json:"paid_at"`
}

// OrderStatusChangedEvent covers every other status transition
// (confirmation, cancellation, manual updates by staff).
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	UserID      uuid.UUID         `json:"user_id"`
	OldStatus   enums.OrderStatus `json:"old_status"`
	NewStatus   enums.OrderStatus `json:"new_status"`
	ChangedAt   time.Time         `json:"changed_at"`
}
