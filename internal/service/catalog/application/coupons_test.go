package application

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/service/catalog/domain"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (h *harness) approvedStoreCoupon(t *testing.T, storeID string, in domain.NewStoreCouponInput) StoreCouponView {
	t.Helper()
	ctx := context.Background()
	c, err := h.workflow.CreateStoreCoupon(ctx, storeID, in)
	require.NoError(t, err)
	c, err = h.workflow.ReviewStoreCoupon(ctx, c.ID, "approved", "admin", "")
	require.NoError(t, err)
	return c
}

func TestCoupons_ApplyStoreCouponWithCap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	maxDiscount := d("500")
	h.approvedStoreCoupon(t, "s1", domain.NewStoreCouponInput{
		Code:      "TEN",
		Terms:     domain.DiscountTerms{Type: domain.DiscountPercentage, Value: d("10"), MaxDiscountAmount: &maxDiscount},
		ExpiresAt: baseTime.Add(time.Hour),
	})

	q, err := h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "u1", StoreID: "s1", Code: "ten", Subtotal: d("2399")})
	require.NoError(t, err)
	assert.Equal(t, ScopeStore, q.Scope)
	assert.True(t, q.Discount.Equal(d("240")), q.Discount.String())
	assert.True(t, q.Total.Equal(d("2159")), q.Total.String())

	q, err = h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "u1", StoreID: "s1", Code: "TEN", Subtotal: d("9000")})
	require.NoError(t, err)
	assert.True(t, q.Discount.Equal(d("500")))

	// 另一家店的购物车不能使用这张券
	_, err = h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "u1", StoreID: "s2", Code: "TEN", Subtotal: d("2399")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCoupons_ReasonsFollowCheckOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	h.buyers["repeat"] = domain.Buyer{UserID: "repeat", PriorOrders: 2}

	pending, err := h.workflow.CreateStoreCoupon(ctx, "s1", domain.NewStoreCouponInput{
		Code: "PENDING", ExpiresAt: baseTime.Add(time.Hour),
		Terms: domain.DiscountTerms{Type: domain.DiscountFixed, Value: d("100")},
	})
	require.NoError(t, err)
	_, err = h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "u1", StoreID: "s1", Code: pending.Code, Subtotal: d("500")})
	assert.ErrorIs(t, err, domain.ErrCouponNotApproved)

	h.approvedStoreCoupon(t, "s1", domain.NewStoreCouponInput{
		Code: "FIRST", ForNewUser: true, ExpiresAt: baseTime.Add(time.Hour),
		Terms: domain.DiscountTerms{Type: domain.DiscountFixed, Value: d("100"), MinOrderAmount: d("300")},
	})
	// 最低金额先于新用户检查
	_, err = h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "repeat", StoreID: "s1", Code: "FIRST", Subtotal: d("200")})
	assert.ErrorIs(t, err, domain.ErrMinOrderNotMet)
	_, err = h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "repeat", StoreID: "s1", Code: "FIRST", Subtotal: d("400")})
	assert.ErrorIs(t, err, domain.ErrCouponNewUsersOnly)
	q, err := h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "fresh", StoreID: "s1", Code: "FIRST", Subtotal: d("400")})
	require.NoError(t, err)
	assert.True(t, q.Total.Equal(d("300")))

	h.clock = baseTime.Add(2 * time.Hour)
	_, err = h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "fresh", StoreID: "s1", Code: "FIRST", Subtotal: d("400")})
	assert.ErrorIs(t, err, domain.ErrCouponExpired)
}

func TestCoupons_PlatformFallbackAndAudience(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.buyers["member"] = domain.Buyer{UserID: "member", IsMember: true, PriorOrders: 4}

	_, err := h.couponSvc.CreatePlatformCoupon(ctx, domain.NewCouponInput{
		Code: "WELCOME50", IsPublic: true, ExpiresAt: baseTime.Add(time.Hour),
		Terms: domain.DiscountTerms{Type: domain.DiscountFixed, Value: d("50")},
	})
	require.NoError(t, err)
	_, err = h.couponSvc.CreatePlatformCoupon(ctx, domain.NewCouponInput{
		Code: "LOYAL", Audience: "is_member && order_count >= 3", ExpiresAt: baseTime.Add(time.Hour),
		Terms: domain.DiscountTerms{Type: domain.DiscountPercentage, Value: d("20")},
	})
	require.NoError(t, err)
	_, err = h.couponSvc.CreatePlatformCoupon(ctx, domain.NewCouponInput{
		Code: "BROKEN", Audience: "is_member +", ExpiresAt: baseTime.Add(time.Hour),
		Terms: domain.DiscountTerms{Type: domain.DiscountFixed, Value: d("5")},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// 店铺没有这个码时回落到平台券
	q, err := h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "u1", StoreID: "s1", Code: "welcome50", Subtotal: d("30")})
	require.NoError(t, err)
	assert.Equal(t, ScopePlatform, q.Scope)
	assert.True(t, q.Discount.Equal(d("30")), "fixed discount never exceeds subtotal")
	assert.True(t, q.Total.IsZero())

	_, err = h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "u1", Code: "LOYAL", Subtotal: d("1000")})
	assert.ErrorIs(t, err, domain.ErrCouponNotForYou)
	q, err = h.couponSvc.ApplyCoupon(ctx, ApplyRequest{UserID: "member", Code: "LOYAL", Subtotal: d("1000")})
	require.NoError(t, err)
	assert.True(t, q.Discount.Equal(d("200")))

	list, err := h.couponSvc.ListAvailableCoupons(ctx, "member")
	require.NoError(t, err)
	codes := []string{}
	for _, c := range list {
		codes = append(codes, c.Code)
	}
	assert.ElementsMatch(t, []string{"WELCOME50", "LOYAL"}, codes)

	list, err = h.couponSvc.ListAvailableCoupons(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "WELCOME50", list[0].Code)
}

func TestCoupons_RedeemHonorsUsageLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	h.approvedStoreCoupon(t, "s1", domain.NewStoreCouponInput{
		Code: "ONCE", UsageLimit: 1, ExpiresAt: baseTime.Add(time.Hour),
		Terms: domain.DiscountTerms{Type: domain.DiscountFixed, Value: d("10")},
	})

	req := ApplyRequest{UserID: "u1", StoreID: "s1", Code: "ONCE", Subtotal: d("100")}
	q, err := h.couponSvc.RedeemCoupon(ctx, req)
	require.NoError(t, err)
	assert.True(t, q.Total.Equal(d("90")))

	_, err = h.couponSvc.RedeemCoupon(ctx, req)
	assert.ErrorIs(t, err, domain.ErrCouponUsageExceeded)
	_, err = h.couponSvc.ApplyCoupon(ctx, req)
	assert.ErrorIs(t, err, domain.ErrCouponUsageExceeded)
}
