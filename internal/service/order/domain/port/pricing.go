package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// CouponQuote 优惠券核销结果
type CouponQuote struct {
	Code     string
	Scope    string
	Discount decimal.Decimal
}

// CouponService 是优惠券服务的出站端口。
type CouponService interface {
	// Redeem 校验并核销优惠券，必须和订单写入处于同一个事务
	Redeem(ctx context.Context, userID, storeID, code string, subtotal decimal.Decimal) (CouponQuote, error)
}
