package infrastructure

import (
	"bazaar/internal/service/order/domain"
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 对应数据库中的 orders 表，商品快照以 JSON 存放
type OrderModel struct {
	ID              string             `gorm:"primaryKey;type:char(36)"`
	UserID          string             `gorm:"type:char(36);index;not null"`
	StoreID         string             `gorm:"type:char(36);index;not null"`
	Items           []domain.OrderItem `gorm:"type:text;serializer:json"`
	Subtotal        decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	Discount        decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	Total           decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	CouponCode      string             `gorm:"type:varchar(40)"`
	CouponScope     string             `gorm:"type:varchar(16)"`
	PaymentMethod   string             `gorm:"type:varchar(40);index;not null"` // 历史数据里可能是旧写法
	ShippingAddress string             `gorm:"type:varchar(1000);not null"`
	Status          domain.Status      `gorm:"type:varchar(16);index;not null;default:placed"`
	CreatedAt       time.Time          `gorm:"index"`
	UpdatedAt       time.Time
}

func (OrderModel) TableName() string { return "orders" }

// Models 需要迁移的表
func Models() []any { return []any{&OrderModel{}} }

func fromDomainOrder(o *domain.Order) *OrderModel {
	return &OrderModel{
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
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// toDomainOrder 读出时规范化支付方式，迁移完成前的旧数据也能按规范值展示
func toDomainOrder(m *OrderModel) *domain.Order {
	payment := domain.PaymentMethod(m.PaymentMethod)
	if !payment.Canonical() {
		if p, ok := domain.NormalizePaymentMethod(m.PaymentMethod); ok {
			payment = p
		}
	}
	return &domain.Order{
		ID:              m.ID,
		UserID:          m.UserID,
		StoreID:         m.StoreID,
		Items:           m.Items,
		Subtotal:        m.Subtotal,
		Discount:        m.Discount,
		Total:           m.Total,
		CouponCode:      m.CouponCode,
		CouponScope:     m.CouponScope,
		PaymentMethod:   payment,
		ShippingAddress: m.ShippingAddress,
		Status:          m.Status,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
