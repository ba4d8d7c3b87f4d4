package checkout

import (
	"github.com/pkg/errors"
)

// CreateOrderHandler 负责持久化订单
type CreateOrderHandler struct {
	NextHandler
}

func (h *CreateOrderHandler) Handle(pc *PlacementContext) error {
	ctx, span := pc.Tracer.Start(pc.Ctx, "checkout.CreateOrder")
	defer span.End()

	if err := pc.Orders.Create(ctx, pc.Order); err != nil {
		return fail(span, errors.Wrap(err, "save order"))
	}
	span.AddEvent("order saved")
	return h.executeNext(pc)
}
