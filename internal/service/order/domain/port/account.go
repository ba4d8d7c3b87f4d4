package port

import "context"

// CheckoutProfile 是账户服务的出站端口，提供收货地址和默认支付方式。
type CheckoutProfile interface {
	// ShippingAddress 返回地址快照；addressID 为空时使用默认地址
	ShippingAddress(ctx context.Context, userID, addressID string) (string, error)
	// DefaultPaymentMethod 用户没有保存支付方式时返回空串
	DefaultPaymentMethod(ctx context.Context, userID string) (string, error)
	// LockBuyer 在下单事务中锁住用户行，同一用户的下单串行执行
	LockBuyer(ctx context.Context, userID string) error
}
