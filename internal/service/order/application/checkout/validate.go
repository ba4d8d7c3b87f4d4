package checkout

import (
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ValidateHandler 校验购物车并生成订单快照：商品必须公开可见、库存足够、属于同一家店铺。
type ValidateHandler struct {
	NextHandler
}

func (h *ValidateHandler) Handle(pc *PlacementContext) error {
	ctx, span := pc.Tracer.Start(pc.Ctx, "checkout.Validate")
	defer span.End()

	if len(pc.Lines) == 0 {
		return fail(span, domain.ErrEmptyOrder)
	}
	ids := make([]string, 0, len(pc.Lines))
	seen := make(map[string]bool, len(pc.Lines))
	for _, l := range pc.Lines {
		if l.Quantity <= 0 {
			return fail(span, domain.ErrInvalidQuantity)
		}
		if seen[l.ProductID] {
			return fail(span, domain.ErrDuplicateItem)
		}
		seen[l.ProductID] = true
		ids = append(ids, l.ProductID)
	}
	span.SetAttributes(attribute.StringSlice("order.products", ids))

	products, err := pc.Catalog.Purchasable(ctx, ids)
	if err != nil {
		return fail(span, err)
	}

	var storeID string
	items := make([]domain.OrderItem, 0, len(pc.Lines))
	for _, l := range pc.Lines {
		p, ok := products[l.ProductID]
		if !ok {
			logger.Ctx(ctx).Info().Str("product_id", l.ProductID).Msg("product not purchasable")
			return fail(span, domain.ErrProductUnavailable)
		}
		if storeID == "" {
			storeID = p.StoreID
		} else if storeID != p.StoreID {
			return fail(span, domain.ErrMultipleStores)
		}
		if l.Quantity > p.StockQuantity {
			return fail(span, domain.ErrOutOfStock)
		}
		items = append(items, domain.OrderItem{
			ProductID: p.ID, Name: p.Name, Image: p.Image, Price: p.Price, Quantity: l.Quantity,
		})
	}

	o, err := domain.NewOrder(pc.NewID(), pc.UserID, storeID, items, pc.Payment, pc.Address, pc.Now)
	if err != nil {
		return fail(span, err)
	}
	pc.Order = o
	span.SetAttributes(attribute.String("store.id", storeID), attribute.String("order.id", o.ID))
	return h.executeNext(pc)
}
