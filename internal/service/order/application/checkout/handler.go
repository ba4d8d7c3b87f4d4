// Package checkout 下单责任链。每一步只做一件事，整条链运行在同一个数据库事务里，
// 任何一步失败都会让事务回滚，不需要手写补偿。
package checkout

import (
	"bazaar/internal/service/order/domain"
	"bazaar/internal/service/order/domain/port"
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Line 顾客提交的一行购物车
type Line struct {
	ProductID string
	Quantity  int
}

// PlacementContext 在责任链中传递的下单上下文
type PlacementContext struct {
	Ctx    context.Context
	Tracer trace.Tracer
	Now    time.Time
	NewID  func() string

	UserID     string
	Lines      []Line
	CouponCode string
	Payment    domain.PaymentMethod
	Address    string

	// 依赖出站端口
	Catalog   port.ProductCatalog
	Inventory port.InventoryService
	Coupons   port.CouponService
	Orders    domain.OrderRepository

	// Order 由校验步骤创建，后续步骤在它上面继续填充
	Order *domain.Order
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(pc *PlacementContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(pc *PlacementContext) error {
	if h.next != nil {
		return h.next.Handle(pc)
	}
	return nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// NewChain 校验 -> 扣库存 -> 优惠券 -> 持久化
func NewChain() Handler {
	chain := new(ValidateHandler)
	chain.
		SetNext(new(InventoryHandler)).
		SetNext(new(PricingHandler)).
		SetNext(new(CreateOrderHandler))
	return chain
}
