package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StoreFilter 管理员店铺列表过滤条件
type StoreFilter struct {
	Status StoreStatus // 为空表示全部
	Search string
	Offset int
	Limit  int
}

// ProductFilter 管理员 / 店主商品列表过滤条件
type ProductFilter struct {
	StoreID  string
	Status   ReviewStatus
	Category string
	Offset   int
	Limit    int
}

// PublicProductFilter 公开商品列表过滤条件，可见性过滤由仓储强制附加
type PublicProductFilter struct {
	StoreID  string
	Category string
	Search   string
	Offset   int
	Limit    int
}

// StoreCouponFilter 店铺优惠券列表过滤条件
type StoreCouponFilter struct {
	StoreID string
	Status  ReviewStatus
	Offset  int
	Limit   int
}

// CouponFilter 平台券列表过滤条件
type CouponFilter struct {
	OnlyAvailable bool // 只返回启用且未过期的
	Now           time.Time
	Offset        int
	Limit         int
}

// StoreRepository 店铺仓储
type StoreRepository interface {
	Create(ctx context.Context, s *Store) error
	FindByID(ctx context.Context, id string) (*Store, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*Store, error)
	FindByUsername(ctx context.Context, username string) (*Store, error)
	FindByEmail(ctx context.Context, email string) (*Store, error)
	FindByUserID(ctx context.Context, userID string) (*Store, error)
	FindByResetToken(ctx context.Context, token string) (*Store, error)
	// UpdateStatus 仅当当前状态仍为 from 时写入 s 的状态，否则返回 ErrStateChanged
	UpdateStatus(ctx context.Context, s *Store, from StoreStatus) error
	UpdateResetToken(ctx context.Context, id, token string, expiry *time.Time) error
	// UpdatePassword 写入新密码并清除重置 token
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	List(ctx context.Context, f StoreFilter) ([]*Store, int64, error)
	CountByStatus(ctx context.Context) (map[StoreStatus]int64, error)
}

// ProductRepository 商品仓储
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*Product, error)
	// UpdateReview 仅当当前审核状态仍为 from 时写入审核字段
	UpdateReview(ctx context.Context, p *Product, from ReviewStatus) error
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal, at time.Time) error
	// UpdateStock 仅当库存仍为 expected 时写入，否则返回 ErrStateChanged
	UpdateStock(ctx context.Context, p *Product, expected int) error
	// ReserveStock 下单时原子扣减 qty，库存不足返回 ErrInsufficientStock
	ReserveStock(ctx context.Context, id string, qty int, at time.Time) error
	// ReleaseStock 取消订单时归还库存
	ReleaseStock(ctx context.Context, id string, qty int, at time.Time) error
	List(ctx context.Context, f ProductFilter) ([]*Product, int64, error)
	ListPublic(ctx context.Context, f PublicProductFilter) ([]*Product, int64, error)
	Categories(ctx context.Context) ([]string, error)
	CountByStatus(ctx context.Context) (map[ReviewStatus]int64, error)
}

// CouponRepository 店铺券和平台券仓储
type CouponRepository interface {
	CreateStoreCoupon(ctx context.Context, c *StoreCoupon) error
	FindStoreCouponByID(ctx context.Context, id string) (*StoreCoupon, error)
	FindStoreCouponByCode(ctx context.Context, storeID, code string) (*StoreCoupon, error)
	UpdateStoreCouponReview(ctx context.Context, c *StoreCoupon, from ReviewStatus) error
	SetStoreCouponActive(ctx context.Context, id string, active bool, at time.Time) error
	ListStoreCoupons(ctx context.Context, f StoreCouponFilter) ([]*StoreCoupon, int64, error)
	CountStoreCouponsByStatus(ctx context.Context) (map[ReviewStatus]int64, error)
	// RedeemStoreCoupon 在不超过使用上限的前提下 used_count + 1
	RedeemStoreCoupon(ctx context.Context, id string) error

	CreateCoupon(ctx context.Context, c *Coupon) error
	FindCouponByCode(ctx context.Context, code string) (*Coupon, error)
	ListCoupons(ctx context.Context, f CouponFilter) ([]*Coupon, int64, error)
	SetCouponActive(ctx context.Context, code string, active bool) error
	RedeemCoupon(ctx context.Context, code string) error
}

// Notifier 审核结果通知，调用方不关心失败
type Notifier interface {
	NotifyStoreApproved(ctx context.Context, s *Store) error
	NotifyStoreRejected(ctx context.Context, s *Store, reason string) error
	NotifyPasswordReset(ctx context.Context, s *Store, token string, expiresAt time.Time) error
}

// ListingCache 公开列表缓存，任何可见性相关的变更都会让它整体失效。
// Get 返回当前代号，Set 只在代号未变时写入，读库期间发生的失效不会被旧结果覆盖
type ListingCache interface {
	Get(ctx context.Context, key string, dst any) (gen int64, hit bool, err error)
	Set(ctx context.Context, key string, gen int64, value any) (bool, error)
	Invalidate(ctx context.Context) error
}

// AudienceEvaluator 执行定向券的人群表达式
type AudienceEvaluator interface {
	Validate(expr string) error
	Matches(expr string, fact AudienceFact) (bool, error)
}

// AudienceFact 人群表达式可以引用的事实
type AudienceFact struct {
	UserID     string
	OrderCount int64
	IsMember   bool
	Subtotal   float64
}

// BuyerDirectory 查询下单人画像（历史订单数、会员）
type BuyerDirectory interface {
	Buyer(ctx context.Context, userID string) (Buyer, error)
}

// Transactor 在一个数据库事务中执行 fn
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
