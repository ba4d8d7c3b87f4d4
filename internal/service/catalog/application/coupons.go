// internal/service/catalog/application/coupons.go
package application

import (
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/catalog/domain"
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ScopeStore    = "store"
	ScopePlatform = "platform"
)

// Coupons 优惠券的计算、核销和平台券管理
type Coupons struct {
	coupons  domain.CouponRepository
	buyers   domain.BuyerDirectory
	audience domain.AudienceEvaluator
	tracer   trace.Tracer
	now      func() time.Time
}

func NewCoupons(coupons domain.CouponRepository, buyers domain.BuyerDirectory, audience domain.AudienceEvaluator, tracer trace.Tracer) *Coupons {
	return &Coupons{coupons: coupons, buyers: buyers, audience: audience, tracer: tracer, now: time.Now}
}

// ApplyRequest 顾客在结算页输入优惠码
type ApplyRequest struct {
	UserID   string
	StoreID  string // 购物车所属店铺，为空时只查平台券
	Code     string
	Subtotal decimal.Decimal
}

// resolved 找到的优惠券，二选一
type resolved struct {
	store    *domain.StoreCoupon
	platform *domain.Coupon
}

func (r resolved) scope() string {
	if r.store != nil {
		return ScopeStore
	}
	return ScopePlatform
}

func (r resolved) terms() domain.DiscountTerms {
	if r.store != nil {
		return r.store.DiscountTerms
	}
	return r.platform.DiscountTerms
}

func (r resolved) code() string {
	if r.store != nil {
		return r.store.Code
	}
	return r.platform.Code
}

// resolve 先按 (店铺, 优惠码) 查店铺券，找不到再查平台券
func (c *Coupons) resolve(ctx context.Context, storeID, code string) (resolved, error) {
	if storeID != "" {
		sc, err := c.coupons.FindStoreCouponByCode(ctx, storeID, code)
		if err == nil {
			return resolved{store: sc}, nil
		}
		if !errors.Is(err, domain.ErrStoreCouponNotFound) {
			return resolved{}, err
		}
	}
	pc, err := c.coupons.FindCouponByCode(ctx, code)
	if err != nil {
		return resolved{}, err
	}
	return resolved{platform: pc}, nil
}

// check 按固定顺序检查适用性，平台定向券最后再执行人群表达式
func (c *Coupons) check(ctx context.Context, r resolved, order domain.OrderContext) error {
	if r.store != nil {
		return domain.IsCouponApplicable(r.store.Eligibility(), order)
	}
	if err := domain.IsCouponApplicable(r.platform.Eligibility(), order); err != nil {
		return err
	}
	if r.platform.IsPublic || r.platform.Audience == "" {
		return nil
	}
	ok, err := c.audience.Matches(r.platform.Audience, factFor(order))
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("coupon", r.platform.Code).Msg("audience rule evaluation failed")
		return domain.ErrCouponNotForYou
	}
	if !ok {
		return domain.ErrCouponNotForYou
	}
	return nil
}

func factFor(order domain.OrderContext) domain.AudienceFact {
	subtotal, _ := order.Subtotal.Float64()
	return domain.AudienceFact{
		UserID:     order.Buyer.UserID,
		OrderCount: order.Buyer.PriorOrders,
		IsMember:   order.Buyer.IsMember,
		Subtotal:   subtotal,
	}
}

func (c *Coupons) quote(ctx context.Context, req ApplyRequest) (resolved, QuoteView, error) {
	if req.Subtotal.IsNegative() {
		return resolved{}, QuoteView{}, domain.ErrInvalidSubtotal
	}
	r, err := c.resolve(ctx, req.StoreID, domain.NormalizeCode(req.Code))
	if err != nil {
		return resolved{}, QuoteView{}, err
	}
	buyer, err := c.buyers.Buyer(ctx, req.UserID)
	if err != nil {
		return resolved{}, QuoteView{}, err
	}
	order := domain.OrderContext{Subtotal: req.Subtotal, Buyer: buyer, Now: c.now()}
	if err := c.check(ctx, r, order); err != nil {
		return resolved{}, QuoteView{}, err
	}
	q := domain.QuoteFor(r.code(), r.terms(), req.Subtotal)
	return r, QuoteView{Code: q.Code, Scope: r.scope(), Subtotal: q.Subtotal, Discount: q.Discount, Total: q.Total}, nil
}

// ApplyCoupon 试算优惠，不核销
func (c *Coupons) ApplyCoupon(ctx context.Context, req ApplyRequest) (QuoteView, error) {
	ctx, span := c.tracer.Start(ctx, "coupons.ApplyCoupon")
	defer span.End()
	span.SetAttributes(attribute.String("coupon.code", req.Code), attribute.String("store.id", req.StoreID))

	_, q, err := c.quote(ctx, req)
	if err != nil {
		return QuoteView{}, fail(span, err)
	}
	span.SetAttributes(attribute.String("coupon.scope", q.Scope), attribute.String("coupon.discount", q.Discount.String()))
	return q, nil
}

// RedeemCoupon 下单时再校验一次并核销，used_count 的条件自增保证不会超过上限。
// 调用方负责把它放进下单事务
func (c *Coupons) RedeemCoupon(ctx context.Context, req ApplyRequest) (QuoteView, error) {
	ctx, span := c.tracer.Start(ctx, "coupons.RedeemCoupon")
	defer span.End()
	span.SetAttributes(attribute.String("coupon.code", req.Code), attribute.String("user.id", req.UserID))

	r, q, err := c.quote(ctx, req)
	if err != nil {
		return QuoteView{}, fail(span, err)
	}
	if r.store != nil {
		err = c.coupons.RedeemStoreCoupon(ctx, r.store.ID)
	} else {
		err = c.coupons.RedeemCoupon(ctx, r.platform.Code)
	}
	if err != nil {
		return QuoteView{}, fail(span, err)
	}
	return q, nil
}

// ListAvailableCoupons 结算页可以展示的平台券: 公开券，加上人群表达式命中当前用户的定向券
func (c *Coupons) ListAvailableCoupons(ctx context.Context, userID string) ([]CouponView, error) {
	ctx, span := c.tracer.Start(ctx, "coupons.ListAvailableCoupons")
	defer span.End()

	all, _, err := c.coupons.ListCoupons(ctx, domain.CouponFilter{OnlyAvailable: true, Now: c.now()})
	if err != nil {
		return nil, fail(span, err)
	}
	var fact *domain.AudienceFact
	if userID != "" {
		buyer, err := c.buyers.Buyer(ctx, userID)
		if err != nil {
			return nil, fail(span, err)
		}
		f := factFor(domain.OrderContext{Buyer: buyer})
		fact = &f
	}

	out := make([]CouponView, 0, len(all))
	for _, cp := range all {
		if cp.IsPublic {
			out = append(out, toCouponView(cp))
			continue
		}
		// 没有人群表达式的非公开券只能凭码使用，不展示
		if fact == nil || cp.Audience == "" {
			continue
		}
		ok, err := c.audience.Matches(cp.Audience, *fact)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("coupon", cp.Code).Msg("audience rule evaluation failed")
			continue
		}
		if ok {
			v := toCouponView(cp)
			v.Audience = ""
			out = append(out, v)
		}
	}
	return out, nil
}

// CreatePlatformCoupon 管理员创建平台券，人群表达式在创建时编译校验
func (c *Coupons) CreatePlatformCoupon(ctx context.Context, in domain.NewCouponInput) (CouponView, error) {
	cp, err := domain.NewCoupon(in, c.now())
	if err != nil {
		return CouponView{}, err
	}
	if cp.Audience != "" {
		if err := c.audience.Validate(cp.Audience); err != nil {
			return CouponView{}, err
		}
	}
	if err := c.coupons.CreateCoupon(ctx, cp); err != nil {
		return CouponView{}, err
	}
	logger.Ctx(ctx).Info().Str("coupon", cp.Code).Bool("public", cp.IsPublic).Msg("platform coupon created")
	return toCouponView(cp), nil
}

// ListPlatformCoupons 管理员平台券列表
func (c *Coupons) ListPlatformCoupons(ctx context.Context, page PageRequest) (Page[CouponView], error) {
	all, total, err := c.coupons.ListCoupons(ctx, domain.CouponFilter{Offset: page.Offset, Limit: page.Limit})
	if err != nil {
		return Page[CouponView]{}, err
	}
	items := make([]CouponView, 0, len(all))
	for _, cp := range all {
		items = append(items, toCouponView(cp))
	}
	return Page[CouponView]{Items: items, Total: total}, nil
}

func (c *Coupons) SetPlatformCouponActive(ctx context.Context, code string, active bool) error {
	return c.coupons.SetCouponActive(ctx, code, active)
}
