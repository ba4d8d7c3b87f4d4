package infrastructure

import (
	"bazaar/internal/pkg/database/dbtest"
	"bazaar/internal/service/catalog/domain"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newStore(id, username string, status domain.StoreStatus, active bool) *domain.Store {
	return &domain.Store{
		ID: id, UserID: "user-" + id, Name: "Store " + id, Username: username,
		Email: username + "@example.com", PasswordHash: "x",
		Status: status, IsActive: active, CreatedAt: now, UpdatedAt: now,
	}
}

func newProduct(id, storeID string, status domain.ReviewStatus, stock int, category string) *domain.Product {
	return &domain.Product{
		ID: id, StoreID: storeID, Name: "Product " + id, Category: category,
		Price: decimal.NewFromInt(100), MRP: decimal.NewFromInt(120),
		Images: []string{"a.jpg"}, StockQuantity: stock, InStock: stock > 0,
		Review: domain.Review{Status: status}, CreatedAt: now, UpdatedAt: now,
	}
}

func TestStoreRepository_CreateAndDuplicates(t *testing.T) {
	db := dbtest.Open(t, Models()...)
	repo := NewGormStoreRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newStore("s1", "acme", domain.StoreStatusPending, false)))

	got, err := repo.FindByUsername(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, domain.StoreStatusPending, got.Status)

	dupName := newStore("s2", "acme", domain.StoreStatusPending, false)
	dupName.Email, dupName.UserID = "other@example.com", "user-other"
	assert.ErrorIs(t, repo.Create(ctx, dupName), domain.ErrDuplicateUsername)

	dupEmail := newStore("s3", "acme2", domain.StoreStatusPending, false)
	dupEmail.Email = "acme@example.com"
	assert.ErrorIs(t, repo.Create(ctx, dupEmail), domain.ErrDuplicateStoreEmail)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestStoreRepository_ConcurrentTransitionHasOneWinner(t *testing.T) {
	db := dbtest.Open(t, Models()...)
	repo := NewGormStoreRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newStore("s1", "acme", domain.StoreStatusPending, false)))

	// 两个管理员同时读到 pending，一个通过一个驳回
	a, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	b, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, a.Approve(now))
	require.NoError(t, b.Reject(now))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, s := range []*domain.Store{a, b} {
		wg.Add(1)
		go func(i int, s *domain.Store) {
			defer wg.Done()
			errs[i] = repo.UpdateStatus(ctx, s, domain.StoreStatusPending)
		}(i, s)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrStateChanged):
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)

	final, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, final.Status == domain.StoreStatusApproved, final.IsActive)
}

func TestStoreRepository_ResetToken(t *testing.T) {
	db := dbtest.Open(t, Models()...)
	repo := NewGormStoreRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newStore("s1", "acme", domain.StoreStatusApproved, true)))
	require.NoError(t, repo.Create(ctx, newStore("s2", "bolt", domain.StoreStatusApproved, true)))

	exp := now.Add(time.Hour)
	require.NoError(t, repo.UpdateResetToken(ctx, "s1", "tok-1", &exp))

	s, err := repo.FindByResetToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, s.ResetTokenValid("tok-1", now))

	require.NoError(t, repo.UpdatePassword(ctx, "s1", "new-hash"))
	_, err = repo.FindByResetToken(ctx, "tok-1")
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)

	s, err = repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", s.PasswordHash)
	assert.Empty(t, s.ResetToken)
}

func TestProductRepository_PublicScope(t *testing.T) {
	db := dbtest.Open(t, Models()...)
	stores := NewGormStoreRepository(db)
	products := NewGormProductRepository(db)
	ctx := context.Background()

	require.NoError(t, stores.Create(ctx, newStore("open", "open", domain.StoreStatusApproved, true)))
	require.NoError(t, stores.Create(ctx, newStore("susp", "susp", domain.StoreStatusSuspended, false)))

	for _, p := range []*domain.Product{
		newProduct("visible", "open", domain.ReviewApproved, 3, "books"),
		newProduct("pending", "open", domain.ReviewPending, 3, "books"),
		newProduct("empty", "open", domain.ReviewApproved, 0, "toys"),
		newProduct("suspended", "susp", domain.ReviewApproved, 3, "games"),
	} {
		require.NoError(t, products.Create(ctx, p))
	}

	list, total, err := products.ListPublic(ctx, domain.PublicProductFilter{Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "visible", list[0].ID)
	assert.Equal(t, "open", list[0].StoreID)

	list, _, err = products.ListPublic(ctx, domain.PublicProductFilter{Search: "PRODUCT VIS", Limit: 20})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, _, err = products.ListPublic(ctx, domain.PublicProductFilter{Category: "toys", Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, list)

	cats, err := products.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"books"}, cats)

	// 管理员列表不受可见性影响
	all, total, err := products.List(ctx, domain.ProductFilter{Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, all, 4)

	counts, err := products.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts[domain.ReviewApproved])
	assert.EqualValues(t, 1, counts[domain.ReviewPending])
}

func TestProductRepository_Stock(t *testing.T) {
	db := dbtest.Open(t, Models()...)
	products := NewGormProductRepository(db)
	ctx := context.Background()
	require.NoError(t, products.Create(ctx, newProduct("p1", "s1", domain.ReviewApproved, 5, "books")))

	// 旧值不匹配的条件更新不生效
	p, err := products.FindByID(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, p.AdjustStock(domain.StockAdd, 1, now))
	assert.ErrorIs(t, products.UpdateStock(ctx, p, 4), domain.ErrStateChanged)
	require.NoError(t, products.UpdateStock(ctx, p, 5))

	require.NoError(t, products.ReserveStock(ctx, "p1", 4, now))
	p, err = products.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.StockQuantity)
	assert.True(t, p.InStock)

	require.NoError(t, products.ReserveStock(ctx, "p1", 2, now))
	p, err = products.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)
	assert.False(t, p.InStock)

	assert.ErrorIs(t, products.ReserveStock(ctx, "p1", 1, now), domain.ErrInsufficientStock)

	require.NoError(t, products.ReleaseStock(ctx, "p1", 3, now))
	p, err = products.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.StockQuantity)
	assert.True(t, p.InStock)
}

func TestProductRepository_ConcurrentReviewHasOneWinner(t *testing.T) {
	db := dbtest.Open(t, Models()...)
	products := NewGormProductRepository(db)
	ctx := context.Background()
	require.NoError(t, products.Create(ctx, newProduct("p1", "s1", domain.ReviewPending, 1, "books")))

	a, _ := products.FindByID(ctx, "p1")
	b, _ := products.FindByID(ctx, "p1")
	require.NoError(t, a.ApplyReview(domain.ReviewApproved, "admin-a", "", now))
	require.NoError(t, b.ApplyReview(domain.ReviewRejected, "admin-b", "blurry photos", now))

	require.NoError(t, products.UpdateReview(ctx, a, domain.ReviewPending))
	assert.ErrorIs(t, products.UpdateReview(ctx, b, domain.ReviewPending), domain.ErrStateChanged)

	final, err := products.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, final.Status)
	assert.Equal(t, "admin-a", final.ReviewedBy)
	assert.Empty(t, final.AdminNote)
}

func TestCouponRepository_RedeemHonorsUsageLimit(t *testing.T) {
	db := dbtest.Open(t, Models()...)
	repo := NewGormCouponRepository(db)
	ctx := context.Background()

	c, err := domain.NewStoreCoupon("c1", "s1", domain.NewStoreCouponInput{
		Code:       "save10",
		Terms:      domain.DiscountTerms{Type: domain.DiscountPercentage, Value: decimal.NewFromInt(10)},
		UsageLimit: 1,
		ExpiresAt:  now.Add(24 * time.Hour),
	}, now)
	require.NoError(t, err)
	require.NoError(t, repo.CreateStoreCoupon(ctx, c))

	dup, err := domain.NewStoreCoupon("c2", "s1", domain.NewStoreCouponInput{
		Code:      "SAVE10",
		Terms:     domain.DiscountTerms{Type: domain.DiscountFixed, Value: decimal.NewFromInt(50)},
		ExpiresAt: now.Add(24 * time.Hour),
	}, now)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.CreateStoreCoupon(ctx, dup), domain.ErrDuplicateCouponCode)

	// 另一家店可以使用相同的码
	dup.StoreID = "s2"
	require.NoError(t, repo.CreateStoreCoupon(ctx, dup))

	got, err := repo.FindStoreCouponByCode(ctx, "s1", "save10")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	assert.True(t, got.IsActive)

	require.NoError(t, repo.RedeemStoreCoupon(ctx, "c1"))
	assert.ErrorIs(t, repo.RedeemStoreCoupon(ctx, "c1"), domain.ErrCouponUsageExceeded)

	// 0 表示不限
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.RedeemStoreCoupon(ctx, "c2"))
	}
}

func TestCouponRepository_PlatformCoupons(t *testing.T) {
	db := dbtest.Open(t, Models()...)
	repo := NewGormCouponRepository(db)
	ctx := context.Background()

	live, err := domain.NewCoupon(domain.NewCouponInput{
		Code: "WELCOME", IsPublic: true, ExpiresAt: now.Add(time.Hour),
		Terms: domain.DiscountTerms{Type: domain.DiscountFixed, Value: decimal.NewFromInt(50)},
	}, now)
	require.NoError(t, err)
	require.NoError(t, repo.CreateCoupon(ctx, live))

	off, err := domain.NewCoupon(domain.NewCouponInput{
		Code: "PAUSED", IsPublic: true, ExpiresAt: now.Add(time.Hour),
		Terms: domain.DiscountTerms{Type: domain.DiscountFixed, Value: decimal.NewFromInt(50)},
	}, now)
	require.NoError(t, err)
	require.NoError(t, repo.CreateCoupon(ctx, off))
	require.NoError(t, repo.SetCouponActive(ctx, "paused", false))

	list, total, err := repo.ListCoupons(ctx, domain.CouponFilter{OnlyAvailable: true, Now: now})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "WELCOME", list[0].Code)

	_, err = repo.FindCouponByCode(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)
}

func TestRedisListingCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := NewRedisListingCache(client, time.Minute)
	ctx := context.Background()

	var out []string
	gen, hit, err := cache.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	stored, err := cache.Set(ctx, "categories", gen, []string{"books", "toys"})
	require.NoError(t, err)
	assert.True(t, stored)
	_, hit, err = cache.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"books", "toys"}, out)

	require.NoError(t, cache.Invalidate(ctx))
	gen, hit, err = cache.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	stored, err = cache.Set(ctx, "categories", gen, []string{"books"})
	require.NoError(t, err)
	assert.True(t, stored)
	mr.FastForward(2 * time.Minute)
	_, hit, err = cache.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisListingCache_SetAfterInvalidateIsDropped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := NewRedisListingCache(client, time.Minute)
	ctx := context.Background()

	var out []string
	gen, hit, err := cache.Get(ctx, "products", &out)
	require.NoError(t, err)
	require.False(t, hit)

	// 读库期间有状态变更提交
	require.NoError(t, cache.Invalidate(ctx))

	stored, err := cache.Set(ctx, "products", gen, []string{"stale"})
	require.NoError(t, err)
	assert.False(t, stored)

	next, hit, err := cache.Get(ctx, "products", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, gen+1, next)
	assert.False(t, mr.Exists("bazaar:{listing}:0:products"))
	assert.False(t, mr.Exists("bazaar:{listing}:1:products"))
}
