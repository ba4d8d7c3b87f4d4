// internal/service/catalog/domain/coupon.go
package domain

import (
	"bazaar/internal/pkg/apperr"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType 折扣类型
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// DiscountTerms 折扣条款，店铺券和平台券共用
type DiscountTerms struct {
	Type              DiscountType
	Value             decimal.Decimal
	MaxDiscountAmount *decimal.Decimal // 只对百分比折扣生效
	MinOrderAmount    decimal.Decimal
}

// Validate 校验条款本身是否合法
func (t DiscountTerms) Validate() error {
	switch t.Type {
	case DiscountPercentage:
		if !t.Value.IsPositive() || t.Value.GreaterThan(hundred) {
			return apperr.Validation("invalid_discount", "percentage discount must be between 0 and 100")
		}
		if t.MaxDiscountAmount != nil && !t.MaxDiscountAmount.IsPositive() {
			return apperr.Validation("invalid_max_discount", "max discount amount must be positive")
		}
	case DiscountFixed:
		if !t.Value.IsPositive() {
			return apperr.Validation("invalid_discount", "fixed discount must be positive")
		}
	default:
		return apperr.Validation("invalid_discount_type", "discount type must be percentage or fixed")
	}
	if t.MinOrderAmount.IsNegative() {
		return apperr.Validation("invalid_min_order", "minimum order amount cannot be negative")
	}
	return nil
}

// Discount 计算优惠金额。
// 百分比: min(round(S*D/100), C)，四舍五入到整数货币单位（远离零）。
// 固定金额: min(V, S)。优惠不会超过小计。
func (t DiscountTerms) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch t.Type {
	case DiscountPercentage:
		d = subtotal.Mul(t.Value).Div(hundred).Round(0)
		if t.MaxDiscountAmount != nil && d.GreaterThan(*t.MaxDiscountAmount) {
			d = *t.MaxDiscountAmount
		}
	case DiscountFixed:
		d = t.Value
	default:
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return d
}

var couponCodePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

// NormalizeCode 统一优惠码大小写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateCode(code string) error {
	if !couponCodePattern.MatchString(code) {
		return apperr.Validation("invalid_code", "coupon code must be 3-32 letters, digits, '-' or '_'")
	}
	return nil
}

// Eligibility 适用性检查需要的全部字段
type Eligibility struct {
	Status         ReviewStatus
	IsActive       bool
	ExpiresAt      time.Time
	MinOrderAmount decimal.Decimal
	ForNewUser     bool
	ForMember      bool
	UsageLimit     int // 0 表示不限
	UsedCount      int
}

// Buyer 下单人的画像
type Buyer struct {
	UserID      string
	PriorOrders int64
	IsMember    bool
}

// OrderContext 计算优惠时的订单上下文
type OrderContext struct {
	Subtotal decimal.Decimal
	Buyer    Buyer
	Now      time.Time
}

// IsCouponApplicable 按固定顺序检查，遇到第一个不满足的条件立即返回对应原因:
// status -> isActive -> expiresAt -> minOrderAmount -> forNewUser -> forMember -> usageLimit
func IsCouponApplicable(e Eligibility, order OrderContext) error {
	if e.Status != ReviewApproved {
		return ErrCouponNotApproved
	}
	if !e.IsActive {
		return ErrCouponInactive
	}
	if !order.Now.Before(e.ExpiresAt) {
		return ErrCouponExpired
	}
	if order.Subtotal.LessThan(e.MinOrderAmount) {
		return ErrMinOrderNotMet
	}
	if e.ForNewUser && order.Buyer.PriorOrders > 0 {
		return ErrCouponNewUsersOnly
	}
	if e.ForMember && !order.Buyer.IsMember {
		return ErrCouponMembersOnly
	}
	if e.UsageLimit > 0 && e.UsedCount >= e.UsageLimit {
		return ErrCouponUsageExceeded
	}
	return nil
}

// StoreCoupon 店铺优惠券，需要管理员审核，没有重新提交的路径
type StoreCoupon struct {
	ID          string
	StoreID     string
	Code        string
	Description string
	DiscountTerms
	ForNewUser bool
	ForMember  bool
	UsageLimit int
	UsedCount  int
	ExpiresAt  time.Time
	IsActive   bool
	Review

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewStoreCouponInput 店主创建优惠券的输入
type NewStoreCouponInput struct {
	Code        string
	Description string
	Terms       DiscountTerms
	ForNewUser  bool
	ForMember   bool
	UsageLimit  int
	ExpiresAt   time.Time
}

// NewStoreCoupon 创建待审核的店铺优惠券
func NewStoreCoupon(id, storeID string, in NewStoreCouponInput, now time.Time) (*StoreCoupon, error) {
	code := NormalizeCode(in.Code)
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if err := in.Terms.Validate(); err != nil {
		return nil, err
	}
	if !in.ExpiresAt.After(now) {
		return nil, apperr.Validation("invalid_expiry", "expiry must be in the future")
	}
	if in.UsageLimit < 0 {
		return nil, apperr.Validation("invalid_usage_limit", "usage limit cannot be negative")
	}
	terms := in.Terms
	if terms.Type == DiscountFixed {
		terms.MaxDiscountAmount = nil
	}
	return &StoreCoupon{
		ID:            id,
		StoreID:       storeID,
		Code:          code,
		Description:   strings.TrimSpace(in.Description),
		DiscountTerms: terms,
		ForNewUser:    in.ForNewUser,
		ForMember:     in.ForMember,
		UsageLimit:    in.UsageLimit,
		ExpiresAt:     in.ExpiresAt,
		IsActive:      true,
		Review:        Review{Status: ReviewPending},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ApplyReview 管理员审核
func (c *StoreCoupon) ApplyReview(decision ReviewStatus, reviewer, note string, now time.Time) error {
	if err := c.decide("coupon", decision, reviewer, note, now); err != nil {
		return err
	}
	c.UpdatedAt = now
	return nil
}

func (c *StoreCoupon) Eligibility() Eligibility {
	return Eligibility{
		Status:         c.Status,
		IsActive:       c.IsActive,
		ExpiresAt:      c.ExpiresAt,
		MinOrderAmount: c.MinOrderAmount,
		ForNewUser:     c.ForNewUser,
		ForMember:      c.ForMember,
		UsageLimit:     c.UsageLimit,
		UsedCount:      c.UsedCount,
	}
}

// Coupon 平台券，由管理员直接创建。非公开券通过 Audience 表达式定向发放
type Coupon struct {
	Code        string
	Description string
	DiscountTerms
	ForNewUser bool
	ForMember  bool
	IsPublic   bool
	Audience   string
	UsageLimit int
	UsedCount  int
	ExpiresAt  time.Time
	IsActive   bool

	CreatedAt time.Time
}

// NewCouponInput 管理员创建平台券的输入
type NewCouponInput struct {
	Code        string
	Description string
	Terms       DiscountTerms
	ForNewUser  bool
	ForMember   bool
	IsPublic    bool
	Audience    string
	UsageLimit  int
	ExpiresAt   time.Time
}

func NewCoupon(in NewCouponInput, now time.Time) (*Coupon, error) {
	code := NormalizeCode(in.Code)
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if err := in.Terms.Validate(); err != nil {
		return nil, err
	}
	if !in.ExpiresAt.After(now) {
		return nil, apperr.Validation("invalid_expiry", "expiry must be in the future")
	}
	if in.UsageLimit < 0 {
		return nil, apperr.Validation("invalid_usage_limit", "usage limit cannot be negative")
	}
	audience := strings.TrimSpace(in.Audience)
	if in.IsPublic {
		audience = ""
	}
	terms := in.Terms
	if terms.Type == DiscountFixed {
		terms.MaxDiscountAmount = nil
	}
	return &Coupon{
		Code:          code,
		Description:   strings.TrimSpace(in.Description),
		DiscountTerms: terms,
		ForNewUser:    in.ForNewUser,
		ForMember:     in.ForMember,
		IsPublic:      in.IsPublic,
		Audience:      audience,
		UsageLimit:    in.UsageLimit,
		ExpiresAt:     in.ExpiresAt,
		IsActive:      true,
		CreatedAt:     now,
	}, nil
}

// Eligibility 平台券没有审核流程，视为已通过
func (c *Coupon) Eligibility() Eligibility {
	return Eligibility{
		Status:         ReviewApproved,
		IsActive:       c.IsActive,
		ExpiresAt:      c.ExpiresAt,
		MinOrderAmount: c.MinOrderAmount,
		ForNewUser:     c.ForNewUser,
		ForMember:      c.ForMember,
		UsageLimit:     c.UsageLimit,
		UsedCount:      c.UsedCount,
	}
}

// Quote 优惠计算结果
type Quote struct {
	Code     string
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// QuoteFor 计算应付金额
func QuoteFor(code string, terms DiscountTerms, subtotal decimal.Decimal) Quote {
	d := terms.Discount(subtotal)
	return Quote{Code: code, Subtotal: subtotal, Discount: d, Total: subtotal.Sub(d)}
}
