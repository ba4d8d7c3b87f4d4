package infrastructure

import (
	"bazaar/internal/service/catalog/domain"

	"github.com/shopspring/decimal"
)

// ToDomainStore 将数据库模型转换为领域模型
func ToDomainStore(m *StoreModel) *domain.Store {
	if m == nil {
		return nil
	}
	s := &domain.Store{
		ID:               m.ID,
		UserID:           m.UserID,
		Name:             m.Name,
		Username:         m.Username,
		Email:            m.Email,
		PasswordHash:     m.PasswordHash,
		Description:      m.Description,
		Logo:             m.Logo,
		Address:          m.Address,
		Contact:          m.Contact,
		Status:           m.Status,
		IsActive:         m.IsActive,
		ResetTokenExpiry: m.ResetTokenExpiry,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.ResetToken != nil {
		s.ResetToken = *m.ResetToken
	}
	return s
}

// FromDomainStore 将领域模型转换为数据库模型 (用于插入)
func FromDomainStore(s *domain.Store) *StoreModel {
	m := &StoreModel{
		ID:               s.ID,
		UserID:           s.UserID,
		Name:             s.Name,
		Username:         s.Username,
		Email:            s.Email,
		PasswordHash:     s.PasswordHash,
		Description:      s.Description,
		Logo:             s.Logo,
		Address:          s.Address,
		Contact:          s.Contact,
		Status:           s.Status,
		IsActive:         s.IsActive,
		ResetTokenExpiry: s.ResetTokenExpiry,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.ResetToken != "" {
		token := s.ResetToken
		m.ResetToken = &token
	}
	return m
}

func ToDomainProduct(m *ProductModel) *domain.Product {
	if m == nil {
		return nil
	}
	return &domain.Product{
		ID:            m.ID,
		StoreID:       m.StoreID,
		Name:          m.Name,
		Description:   m.Description,
		Price:         m.Price,
		MRP:           m.MRP,
		Category:      m.Category,
		Images:        m.Images,
		StockQuantity: m.StockQuantity,
		InStock:       m.InStock,
		Review: domain.Review{
			Status:     m.Status,
			AdminNote:  m.AdminNote,
			ReviewedBy: m.ReviewedBy,
			ReviewedAt: m.ReviewedAt,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func FromDomainProduct(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:            p.ID,
		StoreID:       p.StoreID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		MRP:           p.MRP,
		Category:      p.Category,
		Images:        p.Images,
		StockQuantity: p.StockQuantity,
		InStock:       p.InStock,
		Status:        p.Status,
		AdminNote:     p.AdminNote,
		ReviewedBy:    p.ReviewedBy,
		ReviewedAt:    p.ReviewedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func ToDomainStoreCoupon(m *StoreCouponModel) *domain.StoreCoupon {
	if m == nil {
		return nil
	}
	return &domain.StoreCoupon{
		ID:          m.ID,
		StoreID:     m.StoreID,
		Code:        m.Code,
		Description: m.Description,
		DiscountTerms: domain.DiscountTerms{
			Type:              m.DiscountType,
			Value:             m.DiscountValue,
			MaxDiscountAmount: fromNullDecimal(m.MaxDiscountAmount),
			MinOrderAmount:    m.MinOrderAmount,
		},
		ForNewUser: m.ForNewUser,
		ForMember:  m.ForMember,
		UsageLimit: m.UsageLimit,
		UsedCount:  m.UsedCount,
		ExpiresAt:  m.ExpiresAt,
		IsActive:   m.IsActive,
		Review: domain.Review{
			Status:     m.Status,
			AdminNote:  m.AdminNote,
			ReviewedBy: m.ReviewedBy,
			ReviewedAt: m.ReviewedAt,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func FromDomainStoreCoupon(c *domain.StoreCoupon) *StoreCouponModel {
	return &StoreCouponModel{
		ID:                c.ID,
		StoreID:           c.StoreID,
		Code:              c.Code,
		Description:       c.Description,
		DiscountType:      c.Type,
		DiscountValue:     c.Value,
		MaxDiscountAmount: toNullDecimal(c.MaxDiscountAmount),
		MinOrderAmount:    c.MinOrderAmount,
		ForNewUser:        c.ForNewUser,
		ForMember:         c.ForMember,
		UsageLimit:        c.UsageLimit,
		UsedCount:         c.UsedCount,
		ExpiresAt:         c.ExpiresAt,
		Status:            c.Status,
		IsActive:          c.IsActive,
		AdminNote:         c.AdminNote,
		ReviewedBy:        c.ReviewedBy,
		ReviewedAt:        c.ReviewedAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func ToDomainCoupon(m *CouponModel) *domain.Coupon {
	if m == nil {
		return nil
	}
	return &domain.Coupon{
		Code:        m.Code,
		Description: m.Description,
		DiscountTerms: domain.DiscountTerms{
			Type:              m.DiscountType,
			Value:             m.DiscountValue,
			MaxDiscountAmount: fromNullDecimal(m.MaxDiscountAmount),
			MinOrderAmount:    m.MinOrderAmount,
		},
		ForNewUser: m.ForNewUser,
		ForMember:  m.ForMember,
		IsPublic:   m.IsPublic,
		Audience:   m.Audience,
		UsageLimit: m.UsageLimit,
		UsedCount:  m.UsedCount,
		ExpiresAt:  m.ExpiresAt,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
	}
}

func FromDomainCoupon(c *domain.Coupon) *CouponModel {
	return &CouponModel{
		Code:              c.Code,
		Description:       c.Description,
		DiscountType:      c.Type,
		DiscountValue:     c.Value,
		MaxDiscountAmount: toNullDecimal(c.MaxDiscountAmount),
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
