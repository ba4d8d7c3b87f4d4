// internal/service/catalog/application/workflow.go
package application

import (
	"bazaar/internal/pkg/dispatch"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/metrics"
	"bazaar/internal/service/catalog/domain"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Workflow 审批流程: 店铺、商品、店铺优惠券
type Workflow struct {
	stores   domain.StoreRepository
	products domain.ProductRepository
	coupons  domain.CouponRepository
	cache    domain.ListingCache
	notifier domain.Notifier
	tracer   trace.Tracer

	dispatch dispatch.Group
	now      func() time.Time
	newID    func() string
}

func NewWorkflow(stores domain.StoreRepository, products domain.ProductRepository, coupons domain.CouponRepository,
	cache domain.ListingCache, notifier domain.Notifier, tracer trace.Tracer) *Workflow {
	return &Workflow{
		stores: stores, products: products, coupons: coupons,
		cache: cache, notifier: notifier, tracer: tracer,
		now: time.Now, newID: uuid.NewString,
	}
}

// Wait 等待进行中的通知发送完毕
func (w *Workflow) Wait() { w.dispatch.Wait() }

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

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// invalidate 任何影响公开可见性的变更都要让列表缓存失效，失败只记日志
func invalidate(ctx context.Context, cache domain.ListingCache) {
	if err := cache.Invalidate(ctx); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("listing cache invalidation failed")
	}
}

// transitionStore 读取 -> 领域状态机 -> 条件更新。并发下只有一个请求成功，另一个得到 state_changed
func (w *Workflow) transitionStore(ctx context.Context, action, storeID string, apply func(*domain.Store, time.Time) error) (*domain.Store, error) {
	ctx, span := w.tracer.Start(ctx, "workflow.Store."+action)
	defer span.End()
	span.SetAttributes(attribute.String("store.id", storeID))

	store, err := w.run(ctx, storeID, apply)
	metrics.WorkflowTransitions.WithLabelValues("store", action, resultLabel(err)).Inc()
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("store.status", string(store.Status)))
	invalidate(ctx, w.cache)
	return store, nil
}

func (w *Workflow) run(ctx context.Context, storeID string, apply func(*domain.Store, time.Time) error) (*domain.Store, error) {
	store, err := w.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	from := store.Status
	if err := apply(store, w.now()); err != nil {
		return nil, err
	}
	if err := w.stores.UpdateStatus(ctx, store, from); err != nil {
		return nil, err
	}
	return store, nil
}

// ApproveStore 审核通过店铺，提交后异步发送通过邮件
func (w *Workflow) ApproveStore(ctx context.Context, storeID string) (StoreView, error) {
	store, err := w.transitionStore(ctx, "approve", storeID, (*domain.Store).Approve)
	if err != nil {
		return StoreView{}, err
	}
	logger.Ctx(ctx).Info().Str("store_id", store.ID).Msg("store approved")
	w.dispatch.Go(ctx, "store_approved", func(ctx context.Context) error {
		return w.notifier.NotifyStoreApproved(ctx, store)
	})
	return toStoreView(store), nil
}

// RejectStore 驳回店铺，reason 可以为空
func (w *Workflow) RejectStore(ctx context.Context, storeID, reason string) (StoreView, error) {
	store, err := w.transitionStore(ctx, "reject", storeID, (*domain.Store).Reject)
	if err != nil {
		return StoreView{}, err
	}
	reason = strings.TrimSpace(reason)
	logger.Ctx(ctx).Info().Str("store_id", store.ID).Str("reason", reason).Msg("store rejected")
	w.dispatch.Go(ctx, "store_rejected", func(ctx context.Context) error {
		return w.notifier.NotifyStoreRejected(ctx, store, reason)
	})
	return toStoreView(store), nil
}

func (w *Workflow) SuspendStore(ctx context.Context, storeID string) (StoreView, error) {
	store, err := w.transitionStore(ctx, "suspend", storeID, (*domain.Store).Suspend)
	if err != nil {
		return StoreView{}, err
	}
	logger.Ctx(ctx).Info().Str("store_id", store.ID).Msg("store suspended")
	return toStoreView(store), nil
}

func (w *Workflow) ReinstateStore(ctx context.Context, storeID string) (StoreView, error) {
	store, err := w.transitionStore(ctx, "reinstate", storeID, (*domain.Store).Reinstate)
	if err != nil {
		return StoreView{}, err
	}
	logger.Ctx(ctx).Info().Str("store_id", store.ID).Msg("store reinstated")
	return toStoreView(store), nil
}

// ReviewStore 按管理员给出的结论分派到 ApproveStore / RejectStore
func (w *Workflow) ReviewStore(ctx context.Context, storeID, status, reason string) (StoreView, error) {
	decision, err := domain.ParseDecision(status)
	if err != nil {
		return StoreView{}, err
	}
	if decision == domain.ReviewApproved {
		return w.ApproveStore(ctx, storeID)
	}
	return w.RejectStore(ctx, storeID, reason)
}

// sellingStore 读取店铺并要求其处于可经营状态
func (w *Workflow) sellingStore(ctx context.Context, storeID string) (*domain.Store, error) {
	store, err := w.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !store.CanSell() {
		return nil, domain.ErrStoreNotSelling
	}
	return store, nil
}

// SubmitProduct 店主提交新商品，进入待审核
func (w *Workflow) SubmitProduct(ctx context.Context, storeID string, in domain.NewProductInput) (ProductView, error) {
	ctx, span := w.tracer.Start(ctx, "workflow.Product.submit")
	defer span.End()
	span.SetAttributes(attribute.String("store.id", storeID))

	if _, err := w.sellingStore(ctx, storeID); err != nil {
		return ProductView{}, fail(span, err)
	}
	p, err := domain.NewProduct(w.newID(), storeID, in, w.now())
	if err != nil {
		return ProductView{}, fail(span, err)
	}
	if err := w.products.Create(ctx, p); err != nil {
		return ProductView{}, fail(span, err)
	}
	metrics.WorkflowTransitions.WithLabelValues("product", "submit", "ok").Inc()
	logger.Ctx(ctx).Info().Str("product_id", p.ID).Str("store_id", storeID).Msg("product submitted for review")
	return toProductView(p), nil
}

// ReviewProduct 管理员审核商品，只能处理 pending 商品
func (w *Workflow) ReviewProduct(ctx context.Context, productID, status, reviewer, note string) (ProductView, error) {
	ctx, span := w.tracer.Start(ctx, "workflow.Product.review")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	p, err := w.reviewProduct(ctx, productID, status, reviewer, note)
	metrics.WorkflowTransitions.WithLabelValues("product", "review", resultLabel(err)).Inc()
	if err != nil {
		return ProductView{}, fail(span, err)
	}
	if p.Status == domain.ReviewApproved {
		invalidate(ctx, w.cache)
	}
	return toProductView(p), nil
}

func (w *Workflow) reviewProduct(ctx context.Context, productID, status, reviewer, note string) (*domain.Product, error) {
	decision, err := domain.ParseDecision(status)
	if err != nil {
		return nil, err
	}
	p, err := w.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyReview(decision, reviewer, note, w.now()); err != nil {
		return nil, err
	}
	if err := w.products.UpdateReview(ctx, p, domain.ReviewPending); err != nil {
		return nil, err
	}
	return p, nil
}

// ResubmitProduct 店主重新提交被驳回的商品。
// 检查顺序: 商品属于该店铺 -> 店铺可经营 -> 商品处于 rejected
func (w *Workflow) ResubmitProduct(ctx context.Context, storeID, productID string) (ProductView, error) {
	ctx, span := w.tracer.Start(ctx, "workflow.Product.resubmit")
	defer span.End()
	span.SetAttributes(attribute.String("store.id", storeID), attribute.String("product.id", productID))

	p, err := w.resubmitProduct(ctx, storeID, productID)
	metrics.WorkflowTransitions.WithLabelValues("product", "resubmit", resultLabel(err)).Inc()
	if err != nil {
		return ProductView{}, fail(span, err)
	}
	return toProductView(p), nil
}

func (w *Workflow) resubmitProduct(ctx context.Context, storeID, productID string) (*domain.Product, error) {
	p, err := w.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	// 别的租户的商品一律当作不存在
	if p.StoreID != storeID {
		return nil, domain.ErrProductNotFound
	}
	store, err := w.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := p.Resubmit(store, w.now()); err != nil {
		return nil, err
	}
	if err := w.products.UpdateReview(ctx, p, domain.ReviewRejected); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateStoreCoupon 店主创建店铺优惠券，进入待审核
func (w *Workflow) CreateStoreCoupon(ctx context.Context, storeID string, in domain.NewStoreCouponInput) (StoreCouponView, error) {
	ctx, span := w.tracer.Start(ctx, "workflow.StoreCoupon.create")
	defer span.End()
	span.SetAttributes(attribute.String("store.id", storeID))

	if _, err := w.sellingStore(ctx, storeID); err != nil {
		return StoreCouponView{}, fail(span, err)
	}
	c, err := domain.NewStoreCoupon(w.newID(), storeID, in, w.now())
	if err != nil {
		return StoreCouponView{}, fail(span, err)
	}
	if err := w.coupons.CreateStoreCoupon(ctx, c); err != nil {
		return StoreCouponView{}, fail(span, err)
	}
	metrics.WorkflowTransitions.WithLabelValues("store_coupon", "submit", "ok").Inc()
	return toStoreCouponView(c), nil
}

// ReviewStoreCoupon 管理员审核店铺优惠券。被驳回的券没有重新提交的路径
func (w *Workflow) ReviewStoreCoupon(ctx context.Context, couponID, status, reviewer, note string) (StoreCouponView, error) {
	ctx, span := w.tracer.Start(ctx, "workflow.StoreCoupon.review")
	defer span.End()
	span.SetAttributes(attribute.String("coupon.id", couponID))

	c, err := w.reviewStoreCoupon(ctx, couponID, status, reviewer, note)
	metrics.WorkflowTransitions.WithLabelValues("store_coupon", "review", resultLabel(err)).Inc()
	if err != nil {
		return StoreCouponView{}, fail(span, err)
	}
	return toStoreCouponView(c), nil
}

func (w *Workflow) reviewStoreCoupon(ctx context.Context, couponID, status, reviewer, note string) (*domain.StoreCoupon, error) {
	decision, err := domain.ParseDecision(status)
	if err != nil {
		return nil, err
	}
	c, err := w.coupons.FindStoreCouponByID(ctx, couponID)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyReview(decision, reviewer, note, w.now()); err != nil {
		return nil, err
	}
	if err := w.coupons.UpdateStoreCouponReview(ctx, c, domain.ReviewPending); err != nil {
		return nil, err
	}
	return c, nil
}

// SetStoreCouponActive 店主启用 / 停用自己的优惠券
func (w *Workflow) SetStoreCouponActive(ctx context.Context, storeID, couponID string, active bool) (StoreCouponView, error) {
	c, err := w.coupons.FindStoreCouponByID(ctx, couponID)
	if err != nil {
		return StoreCouponView{}, err
	}
	if c.StoreID != storeID {
		return StoreCouponView{}, domain.ErrStoreCouponNotFound
	}
	now := w.now()
	if err := w.coupons.SetStoreCouponActive(ctx, c.ID, active, now); err != nil {
		return StoreCouponView{}, err
	}
	c.IsActive, c.UpdatedAt = active, now
	return toStoreCouponView(c), nil
}
