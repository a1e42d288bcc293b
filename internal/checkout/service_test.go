package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/internal/cart"
	"github.com/mcastellan/terravia-backend/internal/coupons"
	"github.com/mcastellan/terravia-backend/internal/orders"
	"github.com/mcastellan/terravia-backend/pkg/db/models"
	"github.com/mcastellan/terravia-backend/pkg/enums"
	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
	"github.com/mcastellan/terravia-backend/pkg/outbox"
	"github.com/mcastellan/terravia-backend/pkg/types"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  item_kind TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, item_kind, item_id)
);`, `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  description TEXT,
  discount_type TEXT NOT NULL,
  discount_value NUMERIC NOT NULL,
  min_amount_cents INTEGER,
  max_uses INTEGER,
  current_uses INTEGER NOT NULL DEFAULT 0,
  valid_from DATETIME NOT NULL,
  valid_until DATETIME NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  subtotal_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  total_amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  coupon_code TEXT,
  billing_info TEXT NOT NULL,
  internal_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  item_kind TEXT NOT NULL,
  item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  details TEXT,
  gateway_ref TEXT,
  refund_reason TEXT,
  processed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`}

	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type txDB struct {
	db *gorm.DB
}

func (t *txDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

type stubCartValidator struct {
	view cart.CheckoutView
	err  error
}

func (s *stubCartValidator) ValidateForCheckout(context.Context, uuid.UUID) (cart.CheckoutView, error) {
	if s.err != nil {
		return cart.CheckoutView{}, s.err
	}
	return s.view, nil
}

type failingRedeemer struct {
	discount coupons.Discount
}

func (f *failingRedeemer) ValidateForOrder(context.Context, string, int64) (coupons.Discount, error) {
	return f.discount, nil
}

func (f *failingRedeemer) RedeemTx(context.Context, *gorm.DB, uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "coupon usage limit reached")
}

func twoLineView() cart.CheckoutView {
	return cart.CheckoutView{
		Lines: []cart.PricedLine{
			{
				ItemKind:       enums.ItemKindProduct,
				ItemID:         uuid.New(),
				Name:           "City Hotel",
				UnitPriceCents: 100_00,
				Quantity:       1,
				TotalCents:     100_00,
				Currency:       enums.CurrencyUSD,
			},
			{
				ItemKind:       enums.ItemKindPackage,
				ItemID:         uuid.New(),
				Name:           "Weekend Escape",
				UnitPriceCents: 50_00,
				Quantity:       2,
				TotalCents:     100_00,
				Currency:       enums.CurrencyUSD,
			},
		},
		SubtotalCents: 200_00,
		Currency:      enums.CurrencyUSD,
	}
}

func checkoutBillingInfo() types.BillingInfo {
	return types.BillingInfo{
		FirstName: "Ana",
		LastName:  "Suarez",
		Email:     "ana@example.com",
		Phone:     "+54 11 5555 0000",
		Address:   "Av. Corrientes 1234",
		City:      "Buenos Aires",
		Country:   "AR",
	}
}

func newCheckoutService(t *testing.T, db *gorm.DB, cartValidator cartValidator, redeemer couponRedeemer) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Tx:         &txDB{db: db},
		Cart:       cartValidator,
		CartRepo:   cart.NewRepository(db),
		Coupons:    redeemer,
		OrdersRepo: orders.NewRepository(db),
		Outbox:     outbox.NewService(outbox.NewRepository(db), nil),
	})
	require.NoError(t, err)
	return svc
}

func newRealCouponService(t *testing.T, db *gorm.DB) coupons.Service {
	t.Helper()
	svc, err := coupons.NewService(coupons.ServiceParams{Repo: coupons.NewRepository(db)})
	require.NoError(t, err)
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, code, typed.Code())
}

func TestExecuteCreatesOrderClearsCartAndQueuesEvent(t *testing.T) {
	db := setupCheckoutTestDB(t)
	userID := uuid.New()
	ctx := context.Background()

	cartRepo := cart.NewRepository(db)
	require.NoError(t, cartRepo.AddOrIncrement(ctx, userID, enums.ItemKindProduct, uuid.New(), 1))

	svc := newCheckoutService(t, db, &stubCartValidator{view: twoLineView()}, newRealCouponService(t, db))

	dto, err := svc.Execute(ctx, userID, Input{BillingInfo: checkoutBillingInfo()})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, dto.Status)
	assert.Equal(t, int64(200_00), dto.SubtotalCents)
	assert.Equal(t, int64(0), dto.DiscountCents)
	assert.Equal(t, int64(200_00), dto.TotalAmountCents)
	assert.Len(t, dto.Items, 2)
	assert.Contains(t, dto.OrderNumber, "ORD-")

	lines, err := cartRepo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventOrderCreated).
		Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestExecuteAppliesCouponAndConsumesUse(t *testing.T) {
	db := setupCheckoutTestDB(t)
	userID := uuid.New()
	ctx := context.Background()

	couponSvc := newRealCouponService(t, db)
	now := time.Now().UTC()
	maxUses := 5
	_, err := couponSvc.CreateCoupon(ctx, coupons.CreateCouponInput{
		Code:          "TEN",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		MaxUses:       &maxUses,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
	})
	require.NoError(t, err)

	svc := newCheckoutService(t, db, &stubCartValidator{view: twoLineView()}, couponSvc)

	code := "ten"
	dto, err := svc.Execute(ctx, userID, Input{CouponCode: &code, BillingInfo: checkoutBillingInfo()})
	require.NoError(t, err)

	assert.Equal(t, int64(20_00), dto.DiscountCents)
	assert.Equal(t, int64(180_00), dto.TotalAmountCents)
	require.NotNil(t, dto.CouponCode)
	assert.Equal(t, "TEN", *dto.CouponCode)

	reloaded, err := couponSvc.GetCoupon(ctx, "TEN")
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.CurrentUses)
}

func TestExecuteRollsBackWhenCouponExhausted(t *testing.T) {
	db := setupCheckoutTestDB(t)
	userID := uuid.New()
	ctx := context.Background()

	cartRepo := cart.NewRepository(db)
	require.NoError(t, cartRepo.AddOrIncrement(ctx, userID, enums.ItemKindProduct, uuid.New(), 1))

	redeemer := &failingRedeemer{discount: coupons.Discount{
		CouponID:      uuid.New(),
		Code:          "GONE",
		DiscountCents: 10_00,
	}}
	svc := newCheckoutService(t, db, &stubCartValidator{view: twoLineView()}, redeemer)

	code := "GONE"
	_, err := svc.Execute(ctx, userID, Input{CouponCode: &code, BillingInfo: checkoutBillingInfo()})
	assertCode(t, err, pkgerrors.CodeStateConflict)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(0), orderCount)

	lines, err := cartRepo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Equal(t, int64(0), events)
}

func TestExecuteRejectsInvalidBillingInfo(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db, &stubCartValidator{view: twoLineView()}, newRealCouponService(t, db))

	_, err := svc.Execute(context.Background(), uuid.New(), Input{BillingInfo: types.BillingInfo{FirstName: "Ana"}})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestExecutePropagatesCartValidation(t *testing.T) {
	db := setupCheckoutTestDB(t)
	cartErr := pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	svc := newCheckoutService(t, db, &stubCartValidator{err: cartErr}, newRealCouponService(t, db))

	_, err := svc.Execute(context.Background(), uuid.New(), Input{BillingInfo: checkoutBillingInfo()})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	number := NewOrderNumber(now)
	assert.Regexp(t, `^ORD-20260831-[0-9A-F]{8}$`, number)
}

func TestApplyCouponToPendingOrder(t *testing.T) {
	db := setupCheckoutTestDB(t)
	userID := uuid.New()
	ctx := context.Background()

	couponSvc := newRealCouponService(t, db)
	now := time.Now().UTC()
	maxUses := 2
	_, err := couponSvc.CreateCoupon(ctx, coupons.CreateCouponInput{
		Code:          "LATE10",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		MaxUses:       &maxUses,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
	})
	require.NoError(t, err)

	svc := newCheckoutService(t, db, &stubCartValidator{view: twoLineView()}, couponSvc)

	order, err := svc.Execute(ctx, userID, Input{BillingInfo: checkoutBillingInfo()})
	require.NoError(t, err)
	assert.Nil(t, order.CouponCode)
	assert.Equal(t, int64(200_00), order.TotalAmountCents)

	updated, err := svc.ApplyCoupon(ctx, userID, enums.UserRoleClient, order.ID, " late10 ")
	require.NoError(t, err)
	assert.Equal(t, int64(20_00), updated.DiscountCents)
	assert.Equal(t, int64(180_00), updated.TotalAmountCents)
	require.NotNil(t, updated.CouponCode)
	assert.Equal(t, "LATE10", *updated.CouponCode)

	reloaded, err := couponSvc.GetCoupon(ctx, "LATE10")
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.CurrentUses)

	// A second coupon on the same order is refused.
	_, err = svc.ApplyCoupon(ctx, userID, enums.UserRoleClient, order.ID, "LATE10")
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestApplyCouponForbiddenForForeignUser(t *testing.T) {
	db := setupCheckoutTestDB(t)
	userID := uuid.New()
	ctx := context.Background()

	svc := newCheckoutService(t, db, &stubCartValidator{view: twoLineView()}, newRealCouponService(t, db))
	order, err := svc.Execute(ctx, userID, Input{BillingInfo: checkoutBillingInfo()})
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(ctx, uuid.New(), enums.UserRoleClient, order.ID, "ANY")
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestApplyCouponOnlyWhilePending(t *testing.T) {
	db := setupCheckoutTestDB(t)
	userID := uuid.New()
	ctx := context.Background()

	svc := newCheckoutService(t, db, &stubCartValidator{view: twoLineView()}, newRealCouponService(t, db))
	order, err := svc.Execute(ctx, userID, Input{BillingInfo: checkoutBillingInfo()})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", enums.OrderStatusPaid).Error)

	_, err = svc.ApplyCoupon(ctx, userID, enums.UserRoleClient, order.ID, "ANY")
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestApplyCouponRollsBackWhenExhausted(t *testing.T) {
	db := setupCheckoutTestDB(t)
	userID := uuid.New()
	ctx := context.Background()

	redeemer := &failingRedeemer{discount: coupons.Discount{
		CouponID:      uuid.New(),
		Code:          "GONE",
		DiscountCents: 50_00,
	}}
	svc := newCheckoutService(t, db, &stubCartValidator{view: twoLineView()}, redeemer)

	order, err := svc.Execute(ctx, userID, Input{BillingInfo: checkoutBillingInfo()})
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(ctx, userID, enums.UserRoleClient, order.ID, "GONE")
	assertCode(t, err, pkgerrors.CodeStateConflict)

	reloaded, err := orders.NewRepository(db).FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.CouponCode)
	assert.Equal(t, int64(0), reloaded.DiscountCents)
	assert.Equal(t, int64(200_00), reloaded.TotalAmountCents)
}
