package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/types"
)

// OrderItemDTO is a snapshot line of an order.
type OrderItemDTO struct {
	ID             uuid.UUID      `json:"id"`
	ItemKind       enums.ItemKind `json:"item_kind"`
	ItemID         uuid.UUID      `json:"item_id"`
	Name           string         `json:"name"`
	Quantity       int            `json:"quantity"`
	UnitPriceCents int64          `json:"unit_price_cents"`
	TotalCents     int64          `json:"total_cents"`
}

// PaymentSummaryDTO is the compact payment view embedded in orders.
type PaymentSummaryDTO struct {
	ID          uuid.UUID           `json:"id"`
	AmountCents int64               `json:"amount_cents"`
	Method      enums.PaymentMethod `json:"method"`
	Status      enums.PaymentStatus `json:"status"`
	ProcessedAt *time.Time          `json:"processed_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// OrderDTO is the public projection of an order.
type OrderDTO struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"order_number"`
	UserID           uuid.UUID           `json:"user_id"`
	Status           enums.OrderStatus   `json:"status"`
	SubtotalCents    int64               `json:"subtotal_cents"`
	DiscountCents    int64               `json:"discount_cents"`
	TotalAmountCents int64               `json:"total_amount_cents"`
	Currency         enums.Currency      `json:"currency"`
	CouponCode       *string             `json:"coupon_code,omitempty"`
	BillingInfo      types.BillingInfo   `json:"billing_info"`
	InternalNotes    *string             `json:"internal_notes,omitempty"`
	Items            []OrderItemDTO      `json:"items"`
	Payments         []PaymentSummaryDTO `json:"payments,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// OrdersPageDTO is a cursor-paginated order listing.
type OrdersPageDTO struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
	Total      int64      `json:"total"`
}

// ListFilter narrows order listings for staff queries.
type ListFilter struct {
	Status      *enums.OrderStatus
	UserID      *uuid.UUID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Cursor      string
	Limit       int
}

// ToDTO converts an order row (with preloaded items and payments) into
// its public projection.
func ToDTO(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:             item.ID,
			ItemKind:       item.ItemKind,
			ItemID:         item.ItemID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	payments := make([]PaymentSummaryDTO, 0, len(order.Payments))
	for _, payment := range order.Payments {
		payments = append(payments, PaymentSummaryDTO{
			ID:          payment.ID,
			AmountCents: payment.AmountCents,
			Method:      payment.Method,
			Status:      payment.Status,
			ProcessedAt: payment.ProcessedAt,
			CreatedAt:   payment.CreatedAt,
		})
	}
	return OrderDTO{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		UserID:           order.UserID,
		Status:           order.Status,
		SubtotalCents:    order.SubtotalCents,
		DiscountCents:    order.DiscountCents,
		TotalAmountCents: order.TotalAmountCents,
		Currency:         order.Currency,
		CouponCode:       order.CouponCode,
		BillingInfo:      order.BillingInfo,
		InternalNotes:    order.InternalNotes,
		Items:            items,
		Payments:         payments,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}
