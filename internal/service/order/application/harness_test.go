package application

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/database"
	"bazaar/internal/pkg/database/dbtest"
	catalogapp "bazaar/internal/service/catalog/application"
	catalog "bazaar/internal/service/catalog/domain"
	cataloginfra "bazaar/internal/service/catalog/infrastructure"
	"bazaar/internal/service/catalog/infrastructure/rule"
	"bazaar/internal/service/order/infrastructure"
	"bazaar/internal/service/order/infrastructure/adapter"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

// fakeProfile 按用户保存的地址和默认支付方式
type fakeProfile struct {
	mu        sync.Mutex
	addresses map[string]string
	payments  map[string]string
	locks     []lockCall
}

type lockCall struct {
	userID string
	inTx   bool
}

func (p *fakeProfile) LockBuyer(ctx context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locks = append(p.locks, lockCall{userID: userID, inTx: database.InTx(ctx)})
	return nil
}

func (p *fakeProfile) lockCalls() []lockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]lockCall(nil), p.locks...)
}

// observedInventory 记录缓存失效发生在事务内还是事务外。
// afterReserve 在扣减库存之后、事务提交之前执行
type observedInventory struct {
	*adapter.CatalogAdapter
	mu           sync.Mutex
	changed      []bool
	afterReserve func(ctx context.Context)
}

func (i *observedInventory) ReserveStock(ctx context.Context, productID string, qty int) error {
	if err := i.CatalogAdapter.ReserveStock(ctx, productID, qty); err != nil {
		return err
	}
	if i.afterReserve != nil {
		i.afterReserve(ctx)
	}
	return nil
}

func (i *observedInventory) ListingsChanged(ctx context.Context) {
	i.mu.Lock()
	i.changed = append(i.changed, database.InTx(ctx))
	i.mu.Unlock()
	i.CatalogAdapter.ListingsChanged(ctx)
}

func (i *observedInventory) changes() []bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]bool(nil), i.changed...)
}

func (p *fakeProfile) ShippingAddress(_ context.Context, userID, addressID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.addresses[userID]
	if !ok || (addressID != "" && addressID != "addr-"+userID) {
		return "", apperr.New(apperr.ErrNotFound, "address_not_found", "address not found")
	}
	return a, nil
}

func (p *fakeProfile) DefaultPaymentMethod(_ context.Context, userID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payments[userID], nil
}

type harness struct {
	db        *gorm.DB
	orders    *Orders
	repo      *infrastructure.GormOrderRepository
	products  *cataloginfra.GormProductRepository
	stores    *cataloginfra.GormStoreRepository
	coupons   *catalogapp.Coupons
	profile   *fakeProfile
	inventory *observedInventory
	cache     *cataloginfra.RedisListingCache
	catalog   *catalogapp.Catalog
	clock     time.Time
	seq       int
}

type priorOrders struct{ repo *infrastructure.GormOrderRepository }

func (p priorOrders) Buyer(ctx context.Context, userID string) (catalog.Buyer, error) {
	n, err := p.repo.CountByUser(ctx, userID)
	return catalog.Buyer{UserID: userID, PriorOrders: n}, err
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	models := append(cataloginfra.Models(), infrastructure.Models()...)
	db := dbtest.Open(t, models...)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	evaluator, err := rule.NewCELAudienceEvaluator()
	require.NoError(t, err)
	tracer := noop.NewTracerProvider().Tracer("test")
	cache := cataloginfra.NewRedisListingCache(client, time.Minute)

	h := &harness{
		db:       db,
		repo:     infrastructure.NewGormOrderRepository(db),
		products: cataloginfra.NewGormProductRepository(db),
		stores:   cataloginfra.NewGormStoreRepository(db),
		profile:  &fakeProfile{addresses: map[string]string{}, payments: map[string]string{}},
		cache:    cache,
		clock:    baseTime,
	}
	couponRepo := cataloginfra.NewGormCouponRepository(db)
	productCatalog := catalogapp.NewCatalog(h.stores, h.products, couponRepo, cache, tracer)
	inventory := catalogapp.NewInventory(h.products, cache, tracer)
	h.coupons = catalogapp.NewCoupons(couponRepo, priorOrders{h.repo}, evaluator, tracer)

	products := adapter.NewCatalogAdapter(productCatalog, inventory)
	h.catalog = productCatalog
	h.inventory = &observedInventory{CatalogAdapter: products}
	h.orders = NewOrders(database.NewTransactor(db), h.repo, products, h.inventory,
		adapter.NewCouponAdapter(h.coupons), h.profile, tracer)
	h.orders.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) shopper(userID string) {
	h.profile.mu.Lock()
	defer h.profile.mu.Unlock()
	h.profile.addresses[userID] = "Asha, +91 98765 43210, 1 Main St, Pune, 411001, IN"
}

func (h *harness) seedStore(t *testing.T, id string, status catalog.StoreStatus, active bool) {
	t.Helper()
	require.NoError(t, h.stores.Create(context.Background(), &catalog.Store{
		ID: id, UserID: "owner-" + id, Name: "Store " + id, Username: "shop-" + id,
		Email: id + "@shop.test", PasswordHash: "x",
		Status: status, IsActive: active, CreatedAt: h.clock, UpdatedAt: h.clock,
	}))
}

func (h *harness) seedProduct(t *testing.T, storeID string, price int64, stock int) string {
	t.Helper()
	h.seq++
	id := fmt.Sprintf("prod-%02d", h.seq)
	now := h.clock
	require.NoError(t, h.products.Create(context.Background(), &catalog.Product{
		ID: id, StoreID: storeID, Name: "Item " + id, Category: "Home",
		Price: decimal.NewFromInt(price), MRP: decimal.NewFromInt(price),
		Images: []string{"/img/" + id + ".jpg"}, StockQuantity: stock, InStock: stock > 0,
		Review:    catalog.Review{Status: catalog.ReviewApproved, ReviewedBy: "admin", ReviewedAt: &now},
		CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

func (h *harness) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := h.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}
