// internal/service/catalog/application/view.go
package application

import (
	"bazaar/internal/service/catalog/domain"
	"time"

	"github.com/shopspring/decimal"
)

// StoreView 对外展示的店铺信息，不含密码和重置 token
type StoreView struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Username    string             `json:"username"`
	Email       string             `json:"email,omitempty"`
	Description string             `json:"description,omitempty"`
	Logo        string             `json:"logo,omitempty"`
	Address     string             `json:"address,omitempty"`
	Contact     string             `json:"contact,omitempty"`
	Status      domain.StoreStatus `json:"status"`
	IsActive    bool               `json:"isActive"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func toStoreView(s *domain.Store) StoreView {
	return StoreView{
		ID:          s.ID,
		Name:        s.Name,
		Username:    s.Username,
		Email:       s.Email,
		Description: s.Description,
		Logo:        s.Logo,
		Address:     s.Address,
		Contact:     s.Contact,
		Status:      s.Status,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
	}
}

// publicStoreView 顾客看到的店铺，去掉联系邮箱
func publicStoreView(s *domain.Store) StoreView {
	v := toStoreView(s)
	v.Email = ""
	return v
}

// ProductView 商品
type ProductView struct {
	ID            string              `json:"id"`
	StoreID       string              `json:"storeId"`
	StoreName     string              `json:"storeName,omitempty"`
	StoreUsername string              `json:"storeUsername,omitempty"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Price         decimal.Decimal     `json:"price"`
	MRP           decimal.Decimal     `json:"mrp"`
	Category      string              `json:"category"`
	Images        []string            `json:"images"`
	StockQuantity int                 `json:"stockQuantity"`
	InStock       bool                `json:"inStock"`
	Status        domain.ReviewStatus `json:"status,omitempty"`
	AdminNote     string              `json:"adminNote,omitempty"`
	ReviewedBy    string              `json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time          `json:"reviewedAt,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func toProductView(p *domain.Product) ProductView {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductView{
		ID:            p.ID,
		StoreID:       p.StoreID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		MRP:           p.MRP,
		Category:      p.Category,
		Images:        images,
		StockQuantity: p.StockQuantity,
		InStock:       p.InStock,
		Status:        p.Status,
		AdminNote:     p.AdminNote,
		ReviewedBy:    p.ReviewedBy,
		ReviewedAt:    p.ReviewedAt,
		CreatedAt:     p.CreatedAt,
	}
}

// publicProductView 顾客看到的商品，不暴露审核信息
func publicProductView(p *domain.Product, s *domain.Store) ProductView {
	v := toProductView(p)
	v.Status, v.AdminNote, v.ReviewedBy, v.ReviewedAt = "", "", "", nil
	if s != nil {
		v.StoreName, v.StoreUsername = s.Name, s.Username
	}
	return v
}

// StoreCouponView 店铺优惠券
type StoreCouponView struct {
	ID                string              `json:"id"`
	StoreID           string              `json:"storeId"`
	Code              string              `json:"code"`
	Description       string              `json:"description,omitempty"`
	DiscountType      domain.DiscountType `json:"discountType"`
	DiscountValue     decimal.Decimal     `json:"discountValue"`
	MaxDiscountAmount *decimal.Decimal    `json:"maxDiscountAmount,omitempty"`
	MinOrderAmount    decimal.Decimal     `json:"minOrderAmount"`
	ForNewUser        bool                `json:"forNewUser"`
	ForMember         bool                `json:"forMember"`
	UsageLimit        int                 `json:"usageLimit"`
	UsedCount         int                 `json:"usedCount"`
	ExpiresAt         time.Time           `json:"expiresAt"`
	IsActive          bool                `json:"isActive"`
	Status            domain.ReviewStatus `json:"status"`
	AdminNote         string              `json:"adminNote,omitempty"`
	ReviewedBy        string              `json:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time          `json:"reviewedAt,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
}

func toStoreCouponView(c *domain.StoreCoupon) StoreCouponView {
	return StoreCouponView{
		ID:                c.ID,
		StoreID:           c.StoreID,
		Code:              c.Code,
		Description:       c.Description,
		DiscountType:      c.Type,
		DiscountValue:     c.Value,
		MaxDiscountAmount: c.MaxDiscountAmount,
		MinOrderAmount:    c.MinOrderAmount,
		ForNewUser:        c.ForNewUser,
		ForMember:         c.ForMember,
		UsageLimit:        c.UsageLimit,
		UsedCount:         c.UsedCount,
		ExpiresAt:         c.ExpiresAt,
		IsActive:          c.IsActive,
		Status:            c.Status,
		AdminNote:         c.AdminNote,
		ReviewedBy:        c.ReviewedBy,
		ReviewedAt:        c.ReviewedAt,
		CreatedAt:         c.CreatedAt,
	}
}

// CouponView 平台券
type CouponView struct {
	Code              string              `json:"code"`
	Description       string              `json:"description,omitempty"`
	DiscountType      domain.DiscountType `json:"discountType"`
	DiscountValue     decimal.Decimal     `json:"discountValue"`
	MaxDiscountAmount *decimal.Decimal    `json:"maxDiscountAmount,omitempty"`
	MinOrderAmount    decimal.Decimal     `json:"minOrderAmount"`
	ForNewUser        bool                `json:"forNewUser"`
	ForMember         bool                `json:"forMember"`
	IsPublic          bool                `json:"isPublic"`
	Audience          string              `json:"audience,omitempty"`
	UsageLimit        int                 `json:"usageLimit"`
	UsedCount         int                 `json:"usedCount"`
	ExpiresAt         time.Time           `json:"expiresAt"`
	IsActive          bool                `json:"isActive"`
	CreatedAt         time.Time           `json:"createdAt"`
}

func toCouponView(c *domain.Coupon) CouponView {
	return CouponView{
		Code:              c.Code,
		Description:       c.Description,
		DiscountType:      c.Type,
		DiscountValue:     c.Value,
		MaxDiscountAmount: c.MaxDiscountAmount,
		MinOrderAmount:    c.MinOrderAmount,
		ForNewUser:        c.ForNewUser,
		ForMember:         c.ForMember,
		IsPublic:          c.IsPublic,
		Audience:          c.Audience,
		UsageLimit:        c.UsageLimit,
		UsedCount:         c.UsedCount,
		ExpiresAt:         c.ExpiresAt,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
	}
}

// QuoteView 应用优惠券后的金额
type QuoteView struct {
	Code     string          `json:"code"`
	Scope    string          `json:"scope"` // store | platform
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Page 分页结果
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// PageRequest 分页参数
type PageRequest struct {
	Offset int
	Limit  int
}
