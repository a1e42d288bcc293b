package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/types"
)

// Payment is one settlement attempt against an order. At most one
// payment per order may ever reach COMPLETED.
type Payment struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	UserID       uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	AmountCents  int64                `gorm:"column:amount_cents;not null"`
	Currency     enums.Currency       `gorm:"column:currency;type:text;not null"`
	Method       enums.PaymentMethod  `gorm:"column:method;type:text;not null"`
	Status       enums.PaymentStatus  `gorm:"column:status;type:text;not null;default:'PENDING'"`
	Details      types.PaymentDetails `gorm:"column:details;type:jsonb"`
	GatewayRef   *string              `gorm:"column:gateway_ref"`
	RefundReason *string              `gorm:"column:refund_reason"`
	ProcessedAt  *time.Time           `gorm:"column:processed_at"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
