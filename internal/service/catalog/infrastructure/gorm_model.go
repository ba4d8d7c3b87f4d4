package infrastructure

import (
	"bazaar/internal/service/catalog/domain"
	"time"

	"github.com/shopspring/decimal"
)

// StoreModel 对应数据库中的 stores 表
type StoreModel struct {
	ID               string             `gorm:"primaryKey;type:char(36)"`
	UserID           string             `gorm:"type:char(36);uniqueIndex;not null"`
	Name             string             `gorm:"type:varchar(120);not null"`
	Username         string             `gorm:"type:varchar(60);uniqueIndex;not null"`
	Email            string             `gorm:"type:varchar(190);uniqueIndex;not null"`
	PasswordHash     string             `gorm:"column:password;type:varchar(100);not null"`
	Description      string             `gorm:"type:text"`
	Logo             string             `gorm:"type:varchar(500)"`
	Address          string             `gorm:"type:varchar(500)"`
	Contact          string             `gorm:"type:varchar(40)"`
	Status           domain.StoreStatus `gorm:"type:varchar(16);index;not null;default:pending"`
	IsActive         bool               `gorm:"not null;default:false"`
	ResetToken       *string            `gorm:"type:varchar(64);uniqueIndex"`
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (StoreModel) TableName() string { return "stores" }

// ProductModel 对应数据库中的 products 表
type ProductModel struct {
	ID            string              `gorm:"primaryKey;type:char(36)"`
	StoreID       string              `gorm:"type:char(36);index;not null"`
	Name          string              `gorm:"type:varchar(200);not null"`
	Description   string              `gorm:"type:text"`
	Price         decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	MRP           decimal.Decimal     `gorm:"column:mrp;type:decimal(12,2);not null"`
	Category      string              `gorm:"type:varchar(60);index;not null"`
	Images        []string            `gorm:"type:text;serializer:json"`
	StockQuantity int                 `gorm:"not null;default:0"`
	InStock       bool                `gorm:"not null;default:false"`
	Status        domain.ReviewStatus `gorm:"type:varchar(16);index;not null;default:pending"`
	AdminNote     string              `gorm:"type:varchar(1000)"`
	ReviewedBy    string              `gorm:"type:varchar(190)"`
	ReviewedAt    *time.Time
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

func (ProductModel) TableName() string { return "products" }

// StoreCouponModel 对应数据库中的 store_coupons 表，(store_id, code) 唯一
type StoreCouponModel struct {
	ID                string              `gorm:"primaryKey;type:char(36)"`
	StoreID           string              `gorm:"type:char(36);uniqueIndex:idx_store_coupon_code;not null"`
	Code              string              `gorm:"type:varchar(32);uniqueIndex:idx_store_coupon_code;not null"`
	Description       string              `gorm:"type:varchar(500)"`
	DiscountType      domain.DiscountType `gorm:"type:varchar(16);not null"`
	DiscountValue     decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	MaxDiscountAmount decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	MinOrderAmount    decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	ForNewUser        bool                `gorm:"not null;default:false"`
	ForMember         bool                `gorm:"not null;default:false"`
	UsageLimit        int                 `gorm:"not null;default:0"`
	UsedCount         int                 `gorm:"not null;default:0"`
	ExpiresAt         time.Time           `gorm:"not null"`
	Status            domain.ReviewStatus `gorm:"type:varchar(16);index;not null;default:pending"`
	IsActive          bool                `gorm:"not null"`
	AdminNote         string              `gorm:"type:varchar(1000)"`
	ReviewedBy        string              `gorm:"type:varchar(190)"`
	ReviewedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (StoreCouponModel) TableName() string { return "store_coupons" }

// CouponModel 对应数据库中的 coupons 表（平台券）
type CouponModel struct {
	Code              string              `gorm:"primaryKey;type:varchar(32)"`
	Description       string              `gorm:"type:varchar(500)"`
	DiscountType      domain.DiscountType `gorm:"type:varchar(16);not null"`
	DiscountValue     decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	MaxDiscountAmount decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	MinOrderAmount    decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	ForNewUser        bool                `gorm:"not null;default:false"`
	ForMember         bool                `gorm:"not null;default:false"`
	IsPublic          bool                `gorm:"not null;index"`
	Audience          string              `gorm:"type:varchar(1000)"`
	UsageLimit        int                 `gorm:"not null;default:0"`
	UsedCount         int                 `gorm:"not null;default:0"`
	ExpiresAt         time.Time           `gorm:"not null"`
	IsActive          bool                `gorm:"not null"`
	CreatedAt         time.Time
}

func (CouponModel) TableName() string { return "coupons" }

// Models 返回需要迁移的全部模型
func Models() []any {
	return []any{&StoreModel{}, &ProductModel{}, &StoreCouponModel{}, &CouponModel{}}
}
