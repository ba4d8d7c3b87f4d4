// internal/service/order/domain/order.go
package domain

import (
	"bazaar/internal/pkg/apperr"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem 下单时的商品快照，之后商品改价、改名都不影响订单
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal 单价 × 数量
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order 是订单聚合的根实体，一个订单只属于一家店铺
type Order struct {
	ID              string
	UserID          string
	StoreID         string
	Items           []OrderItem
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	CouponCode      string
	CouponScope     string
	PaymentMethod   PaymentMethod
	ShippingAddress string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrder 工厂函数，金额由商品快照计算，折扣另行设置
func NewOrder(id, userID, storeID string, items []OrderItem, payment PaymentMethod, address string, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if !payment.Canonical() {
		return nil, ErrInvalidPayment
	}
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		subtotal = subtotal.Add(it.LineTotal())
	}
	return &Order{
		ID:              id,
		UserID:          userID,
		StoreID:         storeID,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        decimal.Zero,
		Total:           subtotal,
		PaymentMethod:   payment,
		ShippingAddress: address,
		Status:          StatusPlaced,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ApplyDiscount 记录优惠券抵扣，总价不低于 0
func (o *Order) ApplyDiscount(code, scope string, discount decimal.Decimal) {
	if discount.GreaterThan(o.Subtotal) {
		discount = o.Subtotal
	}
	o.CouponCode, o.CouponScope = code, scope
	o.Discount = discount
	o.Total = o.Subtotal.Sub(discount)
}

// TransitionTo 按状态机推进订单
func (o *Order) TransitionTo(to Status, now time.Time) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if !o.Status.CanTransitionTo(to) {
		return apperr.New(apperr.ErrInvalidTransition, "invalid_transition",
			fmt.Sprintf("cannot move an order from %s to %s", o.Status, to))
	}
	o.Status, o.UpdatedAt = to, now
	return nil
}

// CancelByShopper 顾客只能取消店主尚未确认的订单
func (o *Order) CancelByShopper(now time.Time) error {
	if o.Status != StatusPlaced {
		return ErrCancelNotAllowed
	}
	o.Status, o.UpdatedAt = StatusCancelled, now
	return nil
}
