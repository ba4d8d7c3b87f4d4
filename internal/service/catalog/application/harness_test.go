package application

import (
	"bazaar/internal/pkg/database/dbtest"
	"bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/catalog/infrastructure"
	"bazaar/internal/service/catalog/infrastructure/rule"
	"bazaar/internal/session"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var baseTime = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type sent struct {
	kind    string
	storeID string
	detail  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
	fail bool
}

func (n *fakeNotifier) record(kind string, s *domain.Store, detail string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("mail gateway unavailable")
	}
	n.sent = append(n.sent, sent{kind: kind, storeID: s.ID, detail: detail})
	return nil
}

func (n *fakeNotifier) NotifyStoreApproved(_ context.Context, s *domain.Store) error {
	return n.record("approved", s, "")
}

func (n *fakeNotifier) NotifyStoreRejected(_ context.Context, s *domain.Store, reason string) error {
	return n.record("rejected", s, reason)
}

func (n *fakeNotifier) NotifyPasswordReset(_ context.Context, s *domain.Store, token string, _ time.Time) error {
	return n.record("reset", s, token)
}

func (n *fakeNotifier) all() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sent(nil), n.sent...)
}

type fakeBuyers map[string]domain.Buyer

func (f fakeBuyers) Buyer(_ context.Context, userID string) (domain.Buyer, error) {
	if b, ok := f[userID]; ok {
		return b, nil
	}
	return domain.Buyer{UserID: userID}, nil
}

type harness struct {
	stores   *infrastructure.GormStoreRepository
	products *infrastructure.GormProductRepository
	coupons  *infrastructure.GormCouponRepository
	notifier *fakeNotifier
	buyers   fakeBuyers
	issuer   *session.Issuer
	redis    *miniredis.Miniredis
	cache    *infrastructure.RedisListingCache
	tracer   trace.Tracer

	workflow  *Workflow
	inventory *Inventory
	catalog   *Catalog
	couponSvc *Coupons
	accounts  *StoreAccounts

	clock time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.Open(t, infrastructure.Models()...)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	evaluator, err := rule.NewCELAudienceEvaluator()
	require.NoError(t, err)

	h := &harness{
		stores:   infrastructure.NewGormStoreRepository(db),
		products: infrastructure.NewGormProductRepository(db),
		coupons:  infrastructure.NewGormCouponRepository(db),
		notifier: &fakeNotifier{},
		buyers:   fakeBuyers{},
		issuer:   session.NewIssuer("test-secret", time.Hour),
		redis:    mr,
		clock:    baseTime,
	}
	tracer := noop.NewTracerProvider().Tracer("test")
	cache := infrastructure.NewRedisListingCache(client, time.Minute)
	h.cache = cache
	h.tracer = tracer
	clock := func() time.Time { return h.clock }

	h.workflow = NewWorkflow(h.stores, h.products, h.coupons, cache, h.notifier, tracer)
	h.workflow.now = clock
	h.inventory = NewInventory(h.products, cache, tracer)
	h.inventory.now = clock
	h.catalog = NewCatalog(h.stores, h.products, h.coupons, cache, tracer)
	h.couponSvc = NewCoupons(h.coupons, h.buyers, evaluator, tracer)
	h.couponSvc.now = clock

	hash, err := HashPassword("admin-password")
	require.NoError(t, err)
	h.accounts = NewStoreAccounts(h.stores, h.notifier, h.issuer,
		session.NewLoginLimiter(client, 3, time.Minute),
		AdminCredentials{Email: "root@bazaar.test", PasswordHash: hash}, time.Hour, tracer)
	h.accounts.now = clock
	return h
}

// seedStore 直接写入一个指定状态的店铺
func (h *harness) seedStore(t *testing.T, id string, status domain.StoreStatus, active bool) *domain.Store {
	t.Helper()
	s := &domain.Store{
		ID: id, UserID: "owner-" + id, Name: "Store " + id, Username: "shop-" + id,
		Email: id + "@shop.test", PasswordHash: "x",
		Status: status, IsActive: active, CreatedAt: h.clock, UpdatedAt: h.clock,
	}
	require.NoError(t, h.stores.Create(context.Background(), s))
	return s
}

// seedApprovedProduct 提交并审核通过一个商品
func (h *harness) seedApprovedProduct(t *testing.T, storeID string, stock int) ProductView {
	t.Helper()
	ctx := context.Background()
	p, err := h.workflow.SubmitProduct(ctx, storeID, domain.NewProductInput{
		Name: "Lamp", Category: "Home", Price: decimal.NewFromInt(2399), StockQuantity: stock,
	})
	require.NoError(t, err)
	p, err = h.workflow.ReviewProduct(ctx, p.ID, "approved", "admin", "")
	require.NoError(t, err)
	return p
}
