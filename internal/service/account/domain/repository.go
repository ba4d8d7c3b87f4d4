package domain

import "context"

// UserRepository 顾客账号仓储
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	SetMember(ctx context.Context, id string, member bool) error
	// LockForUpdate 在事务中锁住用户行，串行化该用户的默认项变更
	LockForUpdate(ctx context.Context, id string) error
}

// DefaultSet 一组“最多一个默认项”的用户数据，清除和设置必须在同一个事务里调用
type DefaultSet interface {
	CountByUser(ctx context.Context, userID string) (int64, error)
	ClearDefault(ctx context.Context, userID string) error
	// MarkDefault 行不存在或不属于该用户时返回 not found
	MarkDefault(ctx context.Context, userID, id string) error
	// Delete 删除并返回被删除的行是否是默认项
	Delete(ctx context.Context, userID, id string) (wasDefault bool, err error)
	// LatestID 最近创建的一行，没有时返回空串
	LatestID(ctx context.Context, userID string) (string, error)
}

// AddressRepository 收货地址仓储
type AddressRepository interface {
	DefaultSet
	Create(ctx context.Context, a *Address) error
	FindByID(ctx context.Context, userID, id string) (*Address, error)
	FindDefault(ctx context.Context, userID string) (*Address, error)
	ListByUser(ctx context.Context, userID string) ([]*Address, error)
}

// PaymentMethodRepository 已保存支付方式仓储
type PaymentMethodRepository interface {
	DefaultSet
	Create(ctx context.Context, m *SavedPaymentMethod) error
	FindDefault(ctx context.Context, userID string) (*SavedPaymentMethod, error)
	ListByUser(ctx context.Context, userID string) ([]*SavedPaymentMethod, error)
}

// Transactor 在一个数据库事务中执行 fn
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
