package adapter

import (
	catalogapp "bazaar/internal/service/catalog/application"
	"bazaar/internal/service/order/domain/port"
	"context"

	"github.com/shopspring/decimal"
)

// CouponAdapter 实现了 port.CouponService
type CouponAdapter struct {
	coupons *catalogapp.Coupons
}

func NewCouponAdapter(coupons *catalogapp.Coupons) *CouponAdapter {
	return &CouponAdapter{coupons: coupons}
}

func (a *CouponAdapter) Redeem(ctx context.Context, userID, storeID, code string, subtotal decimal.Decimal) (port.CouponQuote, error) {
	q, err := a.coupons.RedeemCoupon(ctx, catalogapp.ApplyRequest{UserID: userID, StoreID: storeID, Code: code, Subtotal: subtotal})
	if err != nil {
		return port.CouponQuote{}, err
	}
	return port.CouponQuote{Code: q.Code, Scope: q.Scope, Discount: q.Discount}, nil
}
