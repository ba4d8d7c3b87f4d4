package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProductSnapshot 下单时需要的商品信息
type ProductSnapshot struct {
	ID            string
	StoreID       string
	Name          string
	Image         string
	Price         decimal.Decimal
	StockQuantity int
}

// ProductCatalog 是商品目录的出站端口。
// 只返回当前对公众可见的商品，不可见的 id 不出现在结果中。
type ProductCatalog interface {
	Purchasable(ctx context.Context, ids []string) (map[string]ProductSnapshot, error)
}

// InventoryService 是库存的出站端口。
type InventoryService interface {
	// ReserveStock 原子扣减库存，库存不足时返回错误
	ReserveStock(ctx context.Context, productID string, qty int) error

	// ReleaseStock 是 ReserveStock 的补偿操作，订单取消时归还库存。
	ReleaseStock(ctx context.Context, productID string, qty int) error

	// ListingsChanged 库存变更的事务提交之后调用，让公开列表缓存失效
	ListingsChanged(ctx context.Context)
}
