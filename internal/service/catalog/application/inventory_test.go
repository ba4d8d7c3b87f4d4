package application

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/service/catalog/domain"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// racingProducts 第一次条件更新之前插入一次并发写，模拟另一个店主会话同时改库存
type racingProducts struct {
	domain.ProductRepository
	raced bool
}

func (r *racingProducts) UpdateStock(ctx context.Context, p *domain.Product, expected int) error {
	if !r.raced {
		r.raced = true
		other, err := r.ProductRepository.FindByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := other.AdjustStock(domain.StockAdd, 10, baseTime); err != nil {
			return err
		}
		if err := r.ProductRepository.UpdateStock(ctx, other, expected); err != nil {
			return err
		}
	}
	return r.ProductRepository.UpdateStock(ctx, p, expected)
}

func TestInventory_AdjustStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	h.seedStore(t, "s2", domain.StoreStatusApproved, true)
	p := h.seedApprovedProduct(t, "s1", 5)

	v, err := h.inventory.AdjustStock(ctx, "s1", p.ID, domain.StockSubtract, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, v.StockQuantity)
	assert.True(t, v.InStock)

	// 扣减到 0 为止，商品随之从公开列表消失
	v, err = h.inventory.AdjustStock(ctx, "s1", p.ID, domain.StockSubtract, 50)
	require.NoError(t, err)
	assert.Equal(t, 0, v.StockQuantity)
	assert.False(t, v.InStock)
	_, err = h.catalog.GetPublicProduct(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	v, err = h.inventory.AdjustStock(ctx, "s1", p.ID, domain.StockAdd, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, v.StockQuantity)

	stored, err := h.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.StockQuantity)
	assert.True(t, stored.InStock)
	assert.Equal(t, domain.ReviewApproved, stored.Status)

	_, err = h.inventory.AdjustStock(ctx, "s1", p.ID, domain.StockAdd, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidStockQuantity)
	_, err = h.inventory.AdjustStock(ctx, "s1", p.ID, "multiply", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidStockOp)
	_, err = h.inventory.AdjustStock(ctx, "s2", p.ID, domain.StockAdd, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInventory_AdjustStockRetriesOnConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	p := h.seedApprovedProduct(t, "s1", 5)

	racing := &racingProducts{ProductRepository: h.products}
	inv := NewInventory(racing, h.inventory.cache, h.inventory.tracer)
	inv.now = h.inventory.now

	v, err := inv.AdjustStock(ctx, "s1", p.ID, domain.StockSubtract, 3)
	require.NoError(t, err)
	// 5 + 10 (并发写) - 3
	assert.Equal(t, 12, v.StockQuantity)
}

func TestInventory_UpdatePrice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	p := h.seedApprovedProduct(t, "s1", 5)

	v, err := h.inventory.UpdatePrice(ctx, "s1", p.ID, decimal.RequireFromString("1999.50"))
	require.NoError(t, err)
	assert.True(t, v.Price.Equal(decimal.RequireFromString("1999.50")))
	assert.Equal(t, domain.ReviewApproved, v.Status)

	_, err = h.inventory.UpdatePrice(ctx, "s1", p.ID, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	_, err = h.inventory.UpdatePrice(ctx, "other", p.ID, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := h.catalog.GetPublicProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1999.5")))
}

func TestInventory_ReserveAndRelease(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	p := h.seedApprovedProduct(t, "s1", 2)

	require.NoError(t, h.inventory.Reserve(ctx, p.ID, 2))
	assert.ErrorIs(t, h.inventory.Reserve(ctx, p.ID, 1), domain.ErrInsufficientStock)

	purchasable, err := h.catalog.Purchasable(ctx, []string{p.ID})
	require.NoError(t, err)
	assert.Empty(t, purchasable)

	require.NoError(t, h.inventory.Release(ctx, p.ID, 2))
	purchasable, err = h.catalog.Purchasable(ctx, []string{p.ID})
	require.NoError(t, err)
	assert.Contains(t, purchasable, p.ID)
}

func TestInventory_ReserveLeavesCacheToCaller(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStore(t, "s1", domain.StoreStatusApproved, true)
	p := h.seedApprovedProduct(t, "s1", 2)

	var out []string
	before, _, err := h.cache.Get(ctx, "categories", &out)
	require.NoError(t, err)

	// 扣减和归还在调用方事务内，不碰缓存
	require.NoError(t, h.inventory.Reserve(ctx, p.ID, 1))
	require.NoError(t, h.inventory.Release(ctx, p.ID, 1))
	gen, _, err := h.cache.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.Equal(t, before, gen)

	h.inventory.InvalidateListings(ctx)
	gen, _, err = h.cache.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.Equal(t, before+1, gen)
}
