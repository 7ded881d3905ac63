package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/services"
	"github.com/example/vurel/internal/store/memstore"
)

var (
	_ services.UserStore           = (*memstore.Users)(nil)
	_ services.OTPStore            = (*memstore.OTPs)(nil)
	_ services.ProductStore        = (*memstore.Products)(nil)
	_ services.CouponStore         = (*memstore.Coupons)(nil)
	_ services.OrderStore          = (*memstore.Orders)(nil)
	_ services.PaymentSessionStore = (*memstore.Payments)(nil)
)

func TestOrderCreateIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	maxUses := 1
	coupon := &models.Coupon{Code: "once", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(5), MaxUses: &maxUses, IsActive: true}
	require.NoError(t, s.Coupons.Create(ctx, coupon))
	assert.Equal(t, "ONCE", coupon.Code)

	first := &models.Order{Total: decimal.NewFromInt(50), CouponID: &coupon.ID, Status: models.OrderStatusPending}
	require.NoError(t, s.Orders.Create(ctx, first, &models.User{Email: "A@example.com"}))
	require.NotNil(t, first.CustomerID)

	second := &models.Order{Total: decimal.NewFromInt(50), CouponID: &coupon.ID, Status: models.OrderStatusPending}
	err := s.Orders.Create(ctx, second, &models.User{Email: "b@example.com"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	n, err := s.Orders.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, s.Users.Count(), "the rejected order must not leave an account behind")
}

func TestOTPReplaceAndConsume(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	now := time.Now()

	for _, code := range []string{"111111", "222222"} {
		require.NoError(t, s.OTPs.Replace(ctx, &models.OTPCode{
			Email: "x@example.com", Code: code, Purpose: models.OTPPurposeLogin, ExpiresAt: now.Add(10 * time.Minute),
		}))
	}
	require.Len(t, s.OTPs.Unused("x@example.com", models.OTPPurposeLogin), 1)

	err := s.OTPs.Consume(ctx, "x@example.com", "111111", models.OTPPurposeLogin, now)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "replaced code must not validate")

	require.NoError(t, s.OTPs.Consume(ctx, "X@example.com", "222222", models.OTPPurposeLogin, now))
	err = s.OTPs.Consume(ctx, "x@example.com", "222222", models.OTPPurposeLogin, now)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteUserDetachesOrders(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	order := &models.Order{Total: decimal.NewFromInt(10), Status: models.OrderStatusPending}
	require.NoError(t, s.Orders.Create(ctx, order, &models.User{Email: "gone@example.com"}))
	require.NoError(t, s.Users.Delete(ctx, *order.CustomerID))

	got, err := s.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CustomerID)
}
