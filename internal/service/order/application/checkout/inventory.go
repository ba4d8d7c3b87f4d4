package checkout

import (
	"go.opentelemetry.io/otel/attribute"
)

// InventoryHandler 逐行扣减库存。扣减是带条件的单条 UPDATE，
// 校验之后被别人买走的库存在这里会失败并回滚整个事务。
type InventoryHandler struct {
	NextHandler
}

func (h *InventoryHandler) Handle(pc *PlacementContext) error {
	ctx, span := pc.Tracer.Start(pc.Ctx, "checkout.ReserveStock")
	defer span.End()

	for _, it := range pc.Order.Items {
		if err := pc.Inventory.ReserveStock(ctx, it.ProductID, it.Quantity); err != nil {
			span.SetAttributes(attribute.String("product.id", it.ProductID))
			return fail(span, err)
		}
	}
	span.AddEvent("stock reserved")
	return h.executeNext(pc)
}
