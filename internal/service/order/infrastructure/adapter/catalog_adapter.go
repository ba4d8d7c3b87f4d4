package adapter

import (
	catalogapp "bazaar/internal/service/catalog/application"
	catalog "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/order/domain"
	"bazaar/internal/service/order/domain/port"
	"context"
	"errors"
)

// CatalogAdapter 实现了 port.ProductCatalog 和 port.InventoryService，
// 进程内调用商品目录服务，和订单共享同一个事务。
type CatalogAdapter struct {
	catalog   *catalogapp.Catalog
	inventory *catalogapp.Inventory
}

func NewCatalogAdapter(catalog *catalogapp.Catalog, inventory *catalogapp.Inventory) *CatalogAdapter {
	return &CatalogAdapter{catalog: catalog, inventory: inventory}
}

func (a *CatalogAdapter) Purchasable(ctx context.Context, ids []string) (map[string]port.ProductSnapshot, error) {
	products, err := a.catalog.Purchasable(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]port.ProductSnapshot, len(products))
	for id, p := range products {
		var image string
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		out[id] = port.ProductSnapshot{
			ID: p.ID, StoreID: p.StoreID, Name: p.Name, Image: image, Price: p.Price, StockQuantity: p.StockQuantity,
		}
	}
	return out, nil
}

// ReserveStock 库存不足翻译成订单领域的错误
func (a *CatalogAdapter) ReserveStock(ctx context.Context, productID string, qty int) error {
	err := a.inventory.Reserve(ctx, productID, qty)
	if errors.Is(err, catalog.ErrInsufficientStock) {
		return domain.ErrOutOfStock
	}
	return err
}

func (a *CatalogAdapter) ReleaseStock(ctx context.Context, productID string, qty int) error {
	return a.inventory.Release(ctx, productID, qty)
}

func (a *CatalogAdapter) ListingsChanged(ctx context.Context) {
	a.inventory.InvalidateListings(ctx)
}
