// internal/service/order/application/orders.go
package application

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/metrics"
	"bazaar/internal/service/order/application/checkout"
	"bazaar/internal/service/order/domain"
	"bazaar/internal/service/order/domain/port"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Orders 订单用例：顾客下单和取消，店主推进订单状态
type Orders struct {
	tx        domain.Transactor
	orders    domain.OrderRepository
	catalog   port.ProductCatalog
	inventory port.InventoryService
	coupons   port.CouponService
	profile   port.CheckoutProfile
	tracer    trace.Tracer
	chain     checkout.Handler

	now   func() time.Time
	newID func() string
}

func NewOrders(tx domain.Transactor, orders domain.OrderRepository, catalog port.ProductCatalog, inventory port.InventoryService,
	coupons port.CouponService, profile port.CheckoutProfile, tracer trace.Tracer) *Orders {
	return &Orders{
		tx: tx, orders: orders, catalog: catalog, inventory: inventory, coupons: coupons, profile: profile,
		tracer: tracer, chain: checkout.NewChain(),
		now: time.Now, newID: func() string { return uuid.NewString() },
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStateChanged):
		return "conflict"
	default:
		return "rejected"
	}
}

// paymentFor 显式传入的支付方式优先，其次是用户保存的默认支付方式，最后是货到付款
func (s *Orders) paymentFor(ctx context.Context, userID, raw string) (domain.PaymentMethod, error) {
	if strings.TrimSpace(raw) == "" {
		saved, err := s.profile.DefaultPaymentMethod(ctx, userID)
		if err != nil {
			return "", err
		}
		if saved == "" {
			return domain.PaymentCOD, nil
		}
		raw = saved
	}
	m, ok := domain.NormalizePaymentMethod(raw)
	if !ok {
		return "", domain.ErrInvalidPayment
	}
	return m, nil
}

// PlaceOrder 锁用户、校验、扣库存、核销优惠券、写订单，全部在一个事务里；提交后让列表缓存失效
func (s *Orders) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (view OrderView, err error) {
	ctx, span := s.tracer.Start(ctx, "orders.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int("order.lines", len(in.Items)))
	defer func() { metrics.OrderEvents.WithLabelValues("place", resultLabel(err)).Inc() }()

	payment, err := s.paymentFor(ctx, userID, in.PaymentMethod)
	if err != nil {
		return OrderView{}, fail(span, err)
	}
	address, err := s.profile.ShippingAddress(ctx, userID, in.AddressID)
	if err != nil {
		if in.AddressID == "" && errors.Is(err, apperr.ErrNotFound) {
			err = domain.ErrShippingAddressMiss
		}
		return OrderView{}, fail(span, err)
	}

	lines := make([]checkout.Line, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, checkout.Line{ProductID: strings.TrimSpace(it.ProductID), Quantity: it.Quantity})
	}

	var placed *domain.Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// 先锁用户行：新客券按历史订单数判断，同一用户的并发下单必须串行
		if err := s.profile.LockBuyer(ctx, userID); err != nil {
			return err
		}
		// 事务重试时重新走一遍整条链
		pc := &checkout.PlacementContext{
			Ctx: ctx, Tracer: s.tracer, Now: s.now(), NewID: s.newID,
			UserID: userID, Lines: lines, CouponCode: strings.TrimSpace(in.CouponCode),
			Payment: payment, Address: address,
			Catalog: s.catalog, Inventory: s.inventory, Coupons: s.coupons, Orders: s.orders,
		}
		if err := s.chain.Handle(pc); err != nil {
			return err
		}
		placed = pc.Order
		return nil
	})
	if err != nil {
		return OrderView{}, fail(span, err)
	}
	s.inventory.ListingsChanged(ctx)

	logger.Ctx(ctx).Info().Str("order_id", placed.ID).Str("store_id", placed.StoreID).
		Str("total", placed.Total.String()).Msg("order placed")
	return toOrderView(placed), nil
}

// ListMyOrders 顾客的订单，最新的在前
func (s *Orders) ListMyOrders(ctx context.Context, userID string, status domain.Status, page PageRequest) (Page[OrderView], error) {
	return s.list(ctx, domain.OrderFilter{UserID: userID, Status: status, Offset: page.Offset, Limit: page.Limit})
}

// ListStoreOrders 店主只能看到自己店铺的订单
func (s *Orders) ListStoreOrders(ctx context.Context, storeID string, status domain.Status, page PageRequest) (Page[OrderView], error) {
	return s.list(ctx, domain.OrderFilter{StoreID: storeID, Status: status, Offset: page.Offset, Limit: page.Limit})
}

func (s *Orders) list(ctx context.Context, f domain.OrderFilter) (Page[OrderView], error) {
	if f.Status != "" && !f.Status.Valid() {
		return Page[OrderView]{}, domain.ErrInvalidStatus
	}
	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return Page[OrderView]{}, err
	}
	return Page[OrderView]{Items: toOrderViews(orders), Total: total}, nil
}

// GetMyOrder 别人的订单返回 not found
func (s *Orders) GetMyOrder(ctx context.Context, userID, orderID string) (OrderView, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderView{}, err
	}
	if o.UserID != userID {
		return OrderView{}, domain.ErrOrderNotFound
	}
	return toOrderView(o), nil
}

// transition 读取 -> 归属校验 -> 状态机 -> 条件更新，取消时在同一事务内归还库存，提交后再让列表缓存失效
func (s *Orders) transition(ctx context.Context, action, orderID string, owns func(*domain.Order) bool,
	apply func(*domain.Order, time.Time) error) (view OrderView, err error) {
	ctx, span := s.tracer.Start(ctx, "orders."+action)
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))
	defer func() { metrics.OrderEvents.WithLabelValues(action, resultLabel(err)).Inc() }()

	var updated *domain.Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !owns(o) {
			return domain.ErrOrderNotFound
		}
		from := o.Status
		if err := apply(o, s.now()); err != nil {
			return err
		}
		if o.Status == domain.StatusCancelled {
			for _, it := range o.Items {
				if err := s.inventory.ReleaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					// 商品已被删除时库存无处归还，订单照常取消
					if errors.Is(err, apperr.ErrNotFound) {
						logger.Ctx(ctx).Warn().Str("product_id", it.ProductID).Msg("release stock skipped, product gone")
						continue
					}
					return err
				}
			}
		}
		if err := s.orders.UpdateStatus(ctx, o, from); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return OrderView{}, fail(span, err)
	}
	if updated.Status == domain.StatusCancelled {
		s.inventory.ListingsChanged(ctx)
	}
	logger.Ctx(ctx).Info().Str("order_id", updated.ID).Str("status", string(updated.Status)).Msg("order " + action)
	return toOrderView(updated), nil
}

// CancelOrder 顾客取消尚未确认的订单
func (s *Orders) CancelOrder(ctx context.Context, userID, orderID string) (OrderView, error) {
	return s.transition(ctx, "cancel", orderID,
		func(o *domain.Order) bool { return o.UserID == userID },
		func(o *domain.Order, now time.Time) error { return o.CancelByShopper(now) })
}

// UpdateStatus 店主推进自己店铺的订单
func (s *Orders) UpdateStatus(ctx context.Context, storeID, orderID, status string) (OrderView, error) {
	to := domain.Status(strings.ToLower(strings.TrimSpace(status)))
	return s.transition(ctx, "update_status", orderID,
		func(o *domain.Order) bool { return o.StoreID == storeID },
		func(o *domain.Order, now time.Time) error { return o.TransitionTo(to, now) })
}
