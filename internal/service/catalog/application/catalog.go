// internal/service/catalog/application/catalog.go
package application

import (
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/catalog/domain"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Catalog 只读查询: 公开列表、店铺页、店主后台和管理员后台
type Catalog struct {
	stores   domain.StoreRepository
	products domain.ProductRepository
	coupons  domain.CouponRepository
	cache    domain.ListingCache
	tracer   trace.Tracer
}

func NewCatalog(stores domain.StoreRepository, products domain.ProductRepository, coupons domain.CouponRepository,
	cache domain.ListingCache, tracer trace.Tracer) *Catalog {
	return &Catalog{stores: stores, products: products, coupons: coupons, cache: cache, tracer: tracer}
}

// PublicQuery 公开商品列表的查询条件
type PublicQuery struct {
	Category string
	Search   string
	PageRequest
}

func (q PublicQuery) cacheKey() string {
	return fmt.Sprintf("products:c=%s:q=%s:o=%d:l=%d",
		strings.ToLower(strings.TrimSpace(q.Category)), strings.ToLower(strings.TrimSpace(q.Search)), q.Offset, q.Limit)
}

// ListPublicProducts 顾客看到的商品列表，只包含公开可见的商品
func (c *Catalog) ListPublicProducts(ctx context.Context, q PublicQuery) (Page[ProductView], error) {
	ctx, span := c.tracer.Start(ctx, "catalog.ListPublicProducts")
	defer span.End()

	key := q.cacheKey()
	var cached Page[ProductView]
	gen, hit, cacheErr := c.cache.Get(ctx, key, &cached)
	if cacheErr != nil {
		logger.Ctx(ctx).Warn().Err(cacheErr).Msg("listing cache read failed")
	}
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	if hit {
		return cached, nil
	}

	products, total, err := c.products.ListPublic(ctx, domain.PublicProductFilter{
		Category: q.Category,
		Search:   q.Search,
		Offset:   q.Offset,
		Limit:    q.Limit,
	})
	if err != nil {
		return Page[ProductView]{}, fail(span, err)
	}
	page, err := c.withStores(ctx, products, total)
	if err != nil {
		return Page[ProductView]{}, fail(span, err)
	}
	if cacheErr == nil {
		c.store(ctx, key, gen, page)
	}
	return page, nil
}

func (c *Catalog) withStores(ctx context.Context, products []*domain.Product, total int64) (Page[ProductView], error) {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.StoreID)
	}
	stores, err := c.stores.FindByIDs(ctx, ids)
	if err != nil {
		return Page[ProductView]{}, err
	}
	items := make([]ProductView, 0, len(products))
	for _, p := range products {
		items = append(items, publicProductView(p, stores[p.StoreID]))
	}
	return Page[ProductView]{Items: items, Total: total}, nil
}

// GetPublicProduct 商品详情。不可见的商品与不存在的商品返回同样的错误
func (c *Catalog) GetPublicProduct(ctx context.Context, productID string) (ProductView, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.GetPublicProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	p, err := c.products.FindByID(ctx, productID)
	if err != nil {
		return ProductView{}, fail(span, err)
	}
	s, err := c.stores.FindByID(ctx, p.StoreID)
	if err != nil && !errors.Is(err, domain.ErrStoreNotFound) {
		return ProductView{}, fail(span, err)
	}
	if !domain.IsPubliclyVisible(p, s) {
		return ProductView{}, domain.ErrProductNotFound
	}
	return publicProductView(p, s), nil
}

// StorePage 店铺主页
type StorePage struct {
	Store    StoreView          `json:"store"`
	Products Page[ProductView] `json:"products"`
}

// GetPublicStore 店铺主页。只有可经营的店铺对顾客可见
func (c *Catalog) GetPublicStore(ctx context.Context, username string, page PageRequest) (StorePage, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.GetPublicStore")
	defer span.End()
	span.SetAttributes(attribute.String("store.username", username))

	s, err := c.stores.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return StorePage{}, fail(span, err)
	}
	if !s.CanSell() {
		return StorePage{}, domain.ErrStoreNotFound
	}
	products, total, err := c.products.ListPublic(ctx, domain.PublicProductFilter{
		StoreID: s.ID, Offset: page.Offset, Limit: page.Limit,
	})
	if err != nil {
		return StorePage{}, fail(span, err)
	}
	items := make([]ProductView, 0, len(products))
	for _, p := range products {
		items = append(items, publicProductView(p, s))
	}
	return StorePage{Store: publicStoreView(s), Products: Page[ProductView]{Items: items, Total: total}}, nil
}

// Categories 当前有公开商品的分类
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	gen, hit, cacheErr := c.cache.Get(ctx, "categories", &cats)
	if cacheErr == nil && hit {
		return cats, nil
	}
	cats, err := c.products.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if cacheErr == nil {
		c.store(ctx, "categories", gen, cats)
	}
	return cats, nil
}

// store 按读取时的代号回填缓存
func (c *Catalog) store(ctx context.Context, key string, gen int64, value any) {
	stored, err := c.cache.Set(ctx, key, gen, value)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("listing cache write failed")
		return
	}
	if !stored {
		logger.Ctx(ctx).Debug().Str("key", key).Int64("generation", gen).Msg("listing changed during read, cache fill skipped")
	}
}

// Purchasable 下单时读取商品。不可见的商品不出现在结果中
func (c *Catalog) Purchasable(ctx context.Context, productIDs []string) (map[string]*domain.Product, error) {
	products, err := c.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	storeIDs := make([]string, 0, len(products))
	for _, p := range products {
		storeIDs = append(storeIDs, p.StoreID)
	}
	stores, err := c.stores.FindByIDs(ctx, storeIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.Product, len(products))
	for id, p := range products {
		if domain.IsPubliclyVisible(p, stores[p.StoreID]) {
			out[id] = p
		}
	}
	return out, nil
}

// OwnerStore 店主查看自己的店铺
func (c *Catalog) OwnerStore(ctx context.Context, storeID string) (StoreView, error) {
	s, err := c.stores.FindByID(ctx, storeID)
	if err != nil {
		return StoreView{}, err
	}
	return toStoreView(s), nil
}

// ListOwnerProducts 店主的全部商品，包括待审核和被驳回的
func (c *Catalog) ListOwnerProducts(ctx context.Context, storeID string, status domain.ReviewStatus, page PageRequest) (Page[ProductView], error) {
	return c.ListProducts(ctx, domain.ProductFilter{StoreID: storeID, Status: status, Offset: page.Offset, Limit: page.Limit})
}

func (c *Catalog) ListOwnerCoupons(ctx context.Context, storeID string, status domain.ReviewStatus, page PageRequest) (Page[StoreCouponView], error) {
	return c.ListStoreCoupons(ctx, domain.StoreCouponFilter{StoreID: storeID, Status: status, Offset: page.Offset, Limit: page.Limit})
}

// ListStores 管理员店铺列表
func (c *Catalog) ListStores(ctx context.Context, f domain.StoreFilter) (Page[StoreView], error) {
	stores, total, err := c.stores.List(ctx, f)
	if err != nil {
		return Page[StoreView]{}, err
	}
	items := make([]StoreView, 0, len(stores))
	for _, s := range stores {
		items = append(items, toStoreView(s))
	}
	return Page[StoreView]{Items: items, Total: total}, nil
}

// ListProducts 管理员商品列表
func (c *Catalog) ListProducts(ctx context.Context, f domain.ProductFilter) (Page[ProductView], error) {
	products, total, err := c.products.List(ctx, f)
	if err != nil {
		return Page[ProductView]{}, err
	}
	items := make([]ProductView, 0, len(products))
	for _, p := range products {
		items = append(items, toProductView(p))
	}
	return Page[ProductView]{Items: items, Total: total}, nil
}

// ListStoreCoupons 管理员店铺优惠券列表
func (c *Catalog) ListStoreCoupons(ctx context.Context, f domain.StoreCouponFilter) (Page[StoreCouponView], error) {
	coupons, total, err := c.coupons.ListStoreCoupons(ctx, f)
	if err != nil {
		return Page[StoreCouponView]{}, err
	}
	items := make([]StoreCouponView, 0, len(coupons))
	for _, cp := range coupons {
		items = append(items, toStoreCouponView(cp))
	}
	return Page[StoreCouponView]{Items: items, Total: total}, nil
}

// Summary 管理员首页统计
type Summary struct {
	Stores       map[domain.StoreStatus]int64  `json:"stores"`
	Products     map[domain.ReviewStatus]int64 `json:"products"`
	StoreCoupons map[domain.ReviewStatus]int64 `json:"storeCoupons"`
}

// AdminSummary 三组计数并发查询
func (c *Catalog) AdminSummary(ctx context.Context) (Summary, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.AdminSummary")
	defer span.End()

	var out Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Stores, err = c.stores.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Products, err = c.products.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.StoreCoupons, err = c.coupons.CountStoreCouponsByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fail(span, err)
	}
	return out, nil
}
