package checkout

import (
	"go.opentelemetry.io/otel/attribute"
)

// PricingHandler 有优惠码时校验并核销
type PricingHandler struct {
	NextHandler
}

func (h *PricingHandler) Handle(pc *PlacementContext) error {
	if pc.CouponCode == "" {
		return h.executeNext(pc)
	}
	ctx, span := pc.Tracer.Start(pc.Ctx, "checkout.RedeemCoupon")
	defer span.End()
	span.SetAttributes(attribute.String("coupon.code", pc.CouponCode))

	q, err := pc.Coupons.Redeem(ctx, pc.UserID, pc.Order.StoreID, pc.CouponCode, pc.Order.Subtotal)
	if err != nil {
		return fail(span, err)
	}
	pc.Order.ApplyDiscount(q.Code, q.Scope, q.Discount)
	span.SetAttributes(attribute.String("coupon.scope", q.Scope), attribute.String("order.discount", q.Discount.String()))
	return h.executeNext(pc)
}
