package application

import (
	"bazaar/internal/service/order/domain"
	"time"

	"github.com/shopspring/decimal"
)

// OrderView 返回给顾客和店主的订单
type OrderView struct {
	ID              string             `json:"id"`
	UserID          string             `json:"userId"`
	StoreID         string             `json:"storeId"`
	Items           []domain.OrderItem `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Discount        decimal.Decimal    `json:"discount"`
	Total           decimal.Decimal    `json:"total"`
	CouponCode      string             `json:"couponCode,omitempty"`
	CouponScope     string             `json:"couponScope,omitempty"`
	PaymentMethod   string             `json:"paymentMethod"`
	ShippingAddress string             `json:"shippingAddress"`
	Status          string             `json:"status"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

func toOrderView(o *domain.Order) OrderView {
	return OrderView{
		ID:              o.ID,
		UserID:          o.UserID,
		StoreID:         o.StoreID,
		Items:           o.Items,
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		Total:           o.Total,
		CouponCode:      o.CouponCode,
		CouponScope:     o.CouponScope,
		PaymentMethod:   string(o.PaymentMethod),
		ShippingAddress: o.ShippingAddress,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderViews(orders []*domain.Order) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderView(o))
	}
	return out
}

// Page 分页结果
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// PageRequest 分页参数
type PageRequest struct {
	Offset int
	Limit  int
}

// PlaceOrderInput 下单请求
type PlaceOrderInput struct {
	Items         []LineInput `json:"items"`
	CouponCode    string      `json:"couponCode"`
	PaymentMethod string      `json:"paymentMethod"` // 为空时使用默认支付方式，再没有就是货到付款
	AddressID     string      `json:"addressId"`     // 为空时使用默认地址
}

type LineInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
