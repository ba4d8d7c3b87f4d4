// internal/service/order/domain/repository.go
package domain

import "context"

// OrderFilter 订单列表过滤条件
type OrderFilter struct {
	UserID  string
	StoreID string
	Status  Status // 为空表示全部
	Offset  int
	Limit   int
}

// LegacyPayment 一条支付方式尚未规范化的订单
type LegacyPayment struct {
	OrderID string
	Raw     string
}

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	// UpdateStatus 仅当当前状态仍为 from 时写入，否则返回 ErrStateChanged
	UpdateStatus(ctx context.Context, o *Order, from Status) error
	List(ctx context.Context, f OrderFilter) ([]*Order, int64, error)
	// CountByUser 统计未取消的历史订单
	CountByUser(ctx context.Context, userID string) (int64, error)

	// ListLegacyPayments 按 id 递增返回 afterID 之后、支付方式不是规范值的订单
	ListLegacyPayments(ctx context.Context, afterID string, limit int) ([]LegacyPayment, error)
	// RewritePayment 仅当支付方式仍为 raw 时改写
	RewritePayment(ctx context.Context, orderID, raw string, to PaymentMethod) (bool, error)
}

// Transactor 在一个数据库事务中执行 fn
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
