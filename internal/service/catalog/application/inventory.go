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

const stockAttempts = 3

// Inventory 店主维护售价和库存，以及下单 / 取消时的库存扣减与归还
type Inventory struct {
	products domain.ProductRepository
	cache    domain.ListingCache
	tracer   trace.Tracer
	now      func() time.Time
}

func NewInventory(products domain.ProductRepository, cache domain.ListingCache, tracer trace.Tracer) *Inventory {
	return &Inventory{products: products, cache: cache, tracer: tracer, now: time.Now}
}

func (i *Inventory) owned(ctx context.Context, storeID, productID string) (*domain.Product, error) {
	p, err := i.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.StoreID != storeID {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

// UpdatePrice 修改售价，不改变审核状态
func (i *Inventory) UpdatePrice(ctx context.Context, storeID, productID string, price decimal.Decimal) (ProductView, error) {
	ctx, span := i.tracer.Start(ctx, "inventory.UpdatePrice")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	p, err := i.owned(ctx, storeID, productID)
	if err != nil {
		return ProductView{}, fail(span, err)
	}
	if err := p.UpdatePrice(price, i.now()); err != nil {
		return ProductView{}, fail(span, err)
	}
	if err := i.products.UpdatePrice(ctx, p.ID, p.Price, p.UpdatedAt); err != nil {
		return ProductView{}, fail(span, err)
	}
	if p.Status == domain.ReviewApproved {
		invalidate(ctx, i.cache)
	}
	return toProductView(p), nil
}

// AdjustStock 增减库存。
// 读取 -> 领域计算 -> WHERE stock_quantity = 旧值 的条件更新；冲突时重读重试，最多 3 次
func (i *Inventory) AdjustStock(ctx context.Context, storeID, productID string, op domain.StockOp, quantity int) (ProductView, error) {
	ctx, span := i.tracer.Start(ctx, "inventory.AdjustStock")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.String("stock.op", string(op)),
		attribute.Int("stock.quantity", quantity),
	)

	var lastErr error
	for attempt := 1; attempt <= stockAttempts; attempt++ {
		p, err := i.owned(ctx, storeID, productID)
		if err != nil {
			return ProductView{}, fail(span, err)
		}
		expected := p.StockQuantity
		if err := p.AdjustStock(op, quantity, i.now()); err != nil {
			return ProductView{}, fail(span, err)
		}
		err = i.products.UpdateStock(ctx, p, expected)
		if err == nil {
			span.SetAttributes(attribute.Int("stock.after", p.StockQuantity), attribute.Int("stock.attempts", attempt))
			// 库存跨过 0 会改变公开可见性
			if p.Status == domain.ReviewApproved && (expected == 0) != (p.StockQuantity == 0) {
				invalidate(ctx, i.cache)
			}
			return toProductView(p), nil
		}
		if !errors.Is(err, domain.ErrStateChanged) {
			return ProductView{}, fail(span, err)
		}
		lastErr = err
		logger.Ctx(ctx).Debug().Str("product_id", productID).Int("attempt", attempt).Msg("stock update conflict, retrying")
	}
	return ProductView{}, fail(span, lastErr)
}

// Reserve 下单扣减库存，必须在下单事务内调用
func (i *Inventory) Reserve(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidStockQuantity
	}
	return i.products.ReserveStock(ctx, productID, quantity, i.now())
}

// Release 取消订单归还库存
func (i *Inventory) Release(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidStockQuantity
	}
	return i.products.ReleaseStock(ctx, productID, quantity, i.now())
}

// InvalidateListings Reserve / Release 所在事务提交之后由调用方触发。
// 事务内失效的话，提交前的并发读会把旧库存按新代号写回缓存
func (i *Inventory) InvalidateListings(ctx context.Context) {
	invalidate(ctx, i.cache)
}
