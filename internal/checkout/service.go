package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/internal/cart"
	"github.com/mcastellan/terravia-backend/internal/coupons"
	"github.com/mcastellan/terravia-backend/internal/orders"
	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
	"github.com/mcastellan/terravia-backend/pkg/outbox"
	"github.com/mcastellan/terravia-backend/pkg/outbox/payloads"
	"github.com/mcastellan/terravia-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartValidator interface {
	ValidateForCheckout(ctx context.Context, userID uuid.UUID) (cart.CheckoutView, error)
}

type cartClearer interface {
	WithTx(tx *gorm.DB) *cart.Repository
}

type couponRedeemer interface {
	ValidateForOrder(ctx context.Context, code string, subtotalCents int64) (coupons.Discount, error)
	RedeemTx(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Input captures a checkout request.
type Input struct {
	CouponCode  *string
	BillingInfo types.BillingInfo
	Notes       *string
}

// Service executes the checkout orchestration: price the cart, apply
// the coupon, and atomically create the order, consume the coupon use,
// clear the cart and queue the order.created event.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (orders.OrderDTO, error)
	ApplyCoupon(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID, code string) (orders.OrderDTO, error)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Tx         txRunner
	Cart       cartValidator
	CartRepo   cartClearer
	Coupons    couponRedeemer
	OrdersRepo *orders.Repository
	Outbox     outboxPublisher
}

type service struct {
	tx         txRunner
	cart       cartValidator
	cartRepo   cartClearer
	coupons    couponRedeemer
	ordersRepo *orders.Repository
	outbox     outboxPublisher
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart validator is required")
	}
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.Coupons == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon service is required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox publisher is required")
	}
	return &service{
		tx:         params.Tx,
		cart:       params.Cart,
		cartRepo:   params.CartRepo,
		coupons:    params.Coupons,
		ordersRepo: params.OrdersRepo,
		outbox:     params.Outbox,
	}, nil
}

func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (orders.OrderDTO, error) {
	if userID == uuid.Nil {
		return orders.OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := input.BillingInfo.Validate(); err != nil {
		return orders.OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing info")
	}

	view, err := s.cart.ValidateForCheckout(ctx, userID)
	if err != nil {
		return orders.OrderDTO{}, err
	}

	var discount *coupons.Discount
	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		d, err := s.coupons.ValidateForOrder(ctx, *input.CouponCode, view.SubtotalCents)
		if err != nil {
			return orders.OrderDTO{}, err
		}
		discount = &d
	}

	order := buildOrder(userID, view, discount, input)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ordersRepo.WithTx(tx).Create(ctx, &order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if discount != nil {
			// Consumes a use under the cap; rolls back the order when
			// a concurrent checkout exhausted the coupon.
			if err := s.coupons.RedeemTx(ctx, tx, discount.CouponID); err != nil {
				return err
			}
		}
		if err := s.cartRepo.WithTx(tx).Clear(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleClient.String()},
			Data: payloads.OrderCreatedEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				UserID:           userID,
				TotalAmountCents: order.TotalAmountCents,
				Currency:         order.Currency,
				ItemCount:        len(order.Items),
				CouponCode:       order.CouponCode,
			},
		})
	})
	if err != nil {
		return orders.OrderDTO{}, err
	}

	created, err := s.ordersRepo.FindByID(ctx, order.ID)
	if err != nil {
		return orders.OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return orders.ToDTO(*created), nil
}

// ApplyCoupon attaches a coupon to an order created without one. The
// order must still be pending and couponless; the use is consumed and
// the total reduced in the same transaction.
func (s *service) ApplyCoupon(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID, code string) (orders.OrderDTO, error) {
	if strings.TrimSpace(code) == "" {
		return orders.OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return orders.OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return orders.OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != actorID && !orders.IsStaff(actorRole) {
		return orders.OrderDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.Status != enums.OrderStatusPending {
		return orders.OrderDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "coupons apply to pending orders only").
			WithDetails(map[string]any{"status": order.Status})
	}
	if order.CouponCode != nil {
		return orders.OrderDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order already has a coupon")
	}

	discount, err := s.coupons.ValidateForOrder(ctx, code, order.SubtotalCents)
	if err != nil {
		return orders.OrderDTO{}, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.coupons.RedeemTx(ctx, tx, discount.CouponID); err != nil {
			return err
		}
		affected, err := s.ordersRepo.WithTx(tx).ApplyCoupon(ctx, order.ID, discount.Code,
			discount.DiscountCents, order.SubtotalCents-discount.DiscountCents)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply coupon to order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
		}
		return nil
	})
	if err != nil {
		return orders.OrderDTO{}, err
	}

	updated, err := s.ordersRepo.FindByID(ctx, order.ID)
	if err != nil {
		return orders.OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return orders.ToDTO(*updated), nil
}

func buildOrder(userID uuid.UUID, view cart.CheckoutView, discount *coupons.Discount, input Input) models.Order {
	items := make([]models.OrderItem, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, models.OrderItem{
			ItemKind:       line.ItemKind,
			ItemID:         line.ItemID,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.TotalCents,
		})
	}

	order := models.Order{
		OrderNumber:   NewOrderNumber(time.Now().UTC()),
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		SubtotalCents: view.SubtotalCents,
		Currency:      view.Currency,
		BillingInfo:   input.BillingInfo,
		InternalNotes: input.Notes,
		Items:         items,
	}
	if discount != nil {
		order.DiscountCents = discount.DiscountCents
		code := discount.Code
		order.CouponCode = &code
	}
	order.TotalAmountCents = order.SubtotalCents - order.DiscountCents
	return order
}

// NewOrderNumber builds a human-readable unique order reference,
// e.g. ORD-20260831-7F3A2C1B.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
