package adapter

import (
	account "bazaar/internal/service/account/domain"
	catalog "bazaar/internal/service/catalog/domain"
	"context"
)

// OrderCounter 统计顾客未取消的历史订单，由订单仓储实现
type OrderCounter interface {
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// BuyerDirectory 实现了商品目录的 domain.BuyerDirectory：历史订单数来自订单服务，会员身份来自账户。
type BuyerDirectory struct {
	orders OrderCounter
	users  account.UserRepository
}

func NewBuyerDirectory(orders OrderCounter, users account.UserRepository) *BuyerDirectory {
	return &BuyerDirectory{orders: orders, users: users}
}

func (d *BuyerDirectory) Buyer(ctx context.Context, userID string) (catalog.Buyer, error) {
	n, err := d.orders.CountByUser(ctx, userID)
	if err != nil {
		return catalog.Buyer{}, err
	}
	u, err := d.users.FindByID(ctx, userID)
	if err != nil {
		return catalog.Buyer{}, err
	}
	return catalog.Buyer{UserID: userID, PriorOrders: n, IsMember: u.IsMember}, nil
}
