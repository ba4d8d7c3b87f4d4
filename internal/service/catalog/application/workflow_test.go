package application

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/service/catalog/domain"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflow_ApproveStoreNotifiesAfterCommit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusPending, false)

	v, err := h.workflow.ApproveStore(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStatusApproved, v.Status)
	assert.True(t, v.IsActive)

	h.workflow.Wait()
	assert.Equal(t, []sent{{kind: "approved", storeID: "s1"}}, h.notifier.all())

	_, err = h.workflow.ApproveStore(ctx, "s1")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestWorkflow_NotifierFailureKeepsTransition(t *testing.T) {
	h := newHarness(t)
	h.notifier.fail = true
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusPending, false)

	_, err := h.workflow.RejectStore(ctx, "s1", "missing documents")
	require.NoError(t, err)
	h.workflow.Wait()

	s, err := h.stores.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStatusRejected, s.Status)
	assert.False(t, s.IsActive)
}

func TestWorkflow_ConcurrentApproveHasOneWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusPending, false)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.workflow.ApproveStore(ctx, "s1")
		}(i)
	}
	wg.Wait()
	h.workflow.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		// 输家要么读到旧状态后条件更新落空，要么直接读到 approved
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, h.notifier.all(), 1)
}

func TestWorkflow_ReviewStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusPending, false)

	_, err := h.workflow.ReviewStore(ctx, "s1", "maybe", "")
	assert.ErrorIs(t, err, domain.ErrInvalidReviewStatus)

	v, err := h.workflow.ReviewStore(ctx, "s1", "Rejected", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStatusRejected, v.Status)

	v, err = h.workflow.ReviewStore(ctx, "s1", "approved", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStatusApproved, v.Status)

	_, err = h.workflow.ReviewStore(ctx, "missing", "approved", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	h.workflow.Wait()
	kinds := []string{}
	for _, s := range h.notifier.all() {
		kinds = append(kinds, s.kind)
	}
	assert.Equal(t, []string{"rejected", "approved"}, kinds)
}

func TestWorkflow_SuspendHidesCatalog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	p := h.seedApprovedProduct(t, "s1", 5)

	page, err := h.catalog.ListPublicProducts(ctx, PublicQuery{PageRequest: PageRequest{Limit: 20}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Store s1", page.Items[0].StoreName)

	_, err = h.workflow.SuspendStore(ctx, "s1")
	require.NoError(t, err)

	// 缓存随状态变更失效
	page, err = h.catalog.ListPublicProducts(ctx, PublicQuery{PageRequest: PageRequest{Limit: 20}})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	_, err = h.catalog.GetPublicProduct(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	_, err = h.catalog.GetPublicStore(ctx, "shop-s1", PageRequest{Limit: 20})
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)

	_, err = h.workflow.ReinstateStore(ctx, "s1")
	require.NoError(t, err)
	got, err := h.catalog.GetPublicProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Status)
}

// listThenHook 在公开列表读库之后、回填缓存之前执行 afterList
type listThenHook struct {
	domain.ProductRepository
	once      sync.Once
	afterList func()
}

func (r *listThenHook) ListPublic(ctx context.Context, f domain.PublicProductFilter) ([]*domain.Product, int64, error) {
	products, total, err := r.ProductRepository.ListPublic(ctx, f)
	r.once.Do(r.afterList)
	return products, total, err
}

func TestCatalog_SuspendDuringListingReadIsNotCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	h.seedApprovedProduct(t, "s1", 5)

	repo := &listThenHook{ProductRepository: h.products}
	repo.afterList = func() {
		_, err := h.workflow.SuspendStore(ctx, "s1")
		require.NoError(t, err)
	}
	catalog := NewCatalog(h.stores, repo, h.coupons, h.cache, h.tracer)

	_, err := catalog.ListPublicProducts(ctx, PublicQuery{PageRequest: PageRequest{Limit: 20}})
	require.NoError(t, err)

	page, err := catalog.ListPublicProducts(ctx, PublicQuery{PageRequest: PageRequest{Limit: 20}})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}

func TestWorkflow_SubmitRequiresSellingStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "pending", domain.StoreStatusPending, false)

	_, err := h.workflow.SubmitProduct(ctx, "pending", domain.NewProductInput{
		Name: "Lamp", Category: "home", Price: decimal.NewFromInt(10), StockQuantity: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = h.workflow.CreateStoreCoupon(ctx, "pending", domain.NewStoreCouponInput{
		Code: "HELLO", ExpiresAt: baseTime.Add(time.Hour),
		Terms: domain.DiscountTerms{Type: domain.DiscountFixed, Value: decimal.NewFromInt(10)},
	})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestWorkflow_ProductRejectAndResubmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	h.seedStore(t, "s2", domain.StoreStatusApproved, true)

	p, err := h.workflow.SubmitProduct(ctx, "s1", domain.NewProductInput{
		Name: "Mug", Category: "Kitchen", Price: decimal.NewFromInt(250), StockQuantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, p.Status)
	assert.Equal(t, "kitchen", p.Category)

	// 只有 rejected 才能重新提交
	_, err = h.workflow.ResubmitProduct(ctx, "s1", p.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	p, err = h.workflow.ReviewProduct(ctx, p.ID, "rejected", "admin@bazaar.test", "photo is blurry")
	require.NoError(t, err)
	assert.Equal(t, "photo is blurry", p.AdminNote)
	assert.Equal(t, "admin@bazaar.test", p.ReviewedBy)
	require.NotNil(t, p.ReviewedAt)

	_, err = h.workflow.ReviewProduct(ctx, p.ID, "approved", "admin", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	// 别的店铺看不到这个商品
	_, err = h.workflow.ResubmitProduct(ctx, "s2", p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	p, err = h.workflow.ResubmitProduct(ctx, "s1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, p.Status)
	assert.Empty(t, p.AdminNote)
	assert.Nil(t, p.ReviewedAt)
}

func TestWorkflow_ResubmitBlockedWhenStoreSuspended(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)

	p, err := h.workflow.SubmitProduct(ctx, "s1", domain.NewProductInput{
		Name: "Mug", Category: "kitchen", Price: decimal.NewFromInt(250), StockQuantity: 3,
	})
	require.NoError(t, err)
	_, err = h.workflow.ReviewProduct(ctx, p.ID, "rejected", "admin", "")
	require.NoError(t, err)
	_, err = h.workflow.SuspendStore(ctx, "s1")
	require.NoError(t, err)

	_, err = h.workflow.ResubmitProduct(ctx, "s1", p.ID)
	assert.ErrorIs(t, err, domain.ErrStoreNotSelling)
}

func TestWorkflow_StoreCouponHasNoResubmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	h.seedStore(t, "s2", domain.StoreStatusApproved, true)

	c, err := h.workflow.CreateStoreCoupon(ctx, "s1", domain.NewStoreCouponInput{
		Code: "spring-10", ExpiresAt: baseTime.Add(48 * time.Hour),
		Terms: domain.DiscountTerms{Type: domain.DiscountPercentage, Value: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)
	assert.Equal(t, "SPRING-10", c.Code)
	assert.Equal(t, domain.ReviewPending, c.Status)

	c, err = h.workflow.ReviewStoreCoupon(ctx, c.ID, "rejected", "admin", "too generous")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewRejected, c.Status)

	_, err = h.workflow.ReviewStoreCoupon(ctx, c.ID, "approved", "admin", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = h.workflow.SetStoreCouponActive(ctx, "s2", c.ID, false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	c, err = h.workflow.SetStoreCouponActive(ctx, "s1", c.ID, false)
	require.NoError(t, err)
	assert.False(t, c.IsActive)
}

func TestCatalog_AdminSummary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	h.seedStore(t, "s2", domain.StoreStatusPending, false)
	h.seedApprovedProduct(t, "s1", 2)
	_, err := h.workflow.SubmitProduct(ctx, "s1", domain.NewProductInput{
		Name: "Mug", Category: "kitchen", Price: decimal.NewFromInt(250), StockQuantity: 3,
	})
	require.NoError(t, err)

	sum, err := h.catalog.AdminSummary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sum.Stores[domain.StoreStatusApproved])
	assert.EqualValues(t, 1, sum.Stores[domain.StoreStatusPending])
	assert.EqualValues(t, 1, sum.Products[domain.ReviewApproved])
	assert.EqualValues(t, 1, sum.Products[domain.ReviewPending])
	assert.Empty(t, sum.StoreCoupons)

	owner, err := h.catalog.ListOwnerProducts(ctx, "s1", domain.ReviewPending, PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, owner.Total)
}
