// internal/service/catalog/domain/product.go
package domain

import (
	"bazaar/internal/pkg/apperr"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReviewStatus 商品和店铺优惠券共用的审核状态
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ParseDecision 解析管理员的审核结论，只接受 approved / rejected
func ParseDecision(s string) (ReviewStatus, error) {
	switch ReviewStatus(strings.ToLower(strings.TrimSpace(s))) {
	case ReviewApproved:
		return ReviewApproved, nil
	case ReviewRejected:
		return ReviewRejected, nil
	}
	return "", ErrInvalidReviewStatus
}

const MaxProductImages = 4

// Review 审核印记
type Review struct {
	Status     ReviewStatus
	AdminNote  string
	ReviewedBy string
	ReviewedAt *time.Time
}

// decide 把 pending 状态变为 decision，并记录审核人和时间
func (r *Review) decide(entity string, decision ReviewStatus, reviewer, note string, now time.Time) error {
	if decision != ReviewApproved && decision != ReviewRejected {
		return ErrInvalidReviewStatus
	}
	if r.Status != ReviewPending {
		return apperr.New(apperr.ErrInvalidTransition, "not_pending", entity+" is not pending review")
	}
	r.Status = decision
	r.ReviewedBy = reviewer
	r.ReviewedAt = &now
	if decision == ReviewRejected {
		r.AdminNote = strings.TrimSpace(note)
	} else {
		r.AdminNote = ""
	}
	return nil
}

// Product 商品
type Product struct {
	ID            string
	StoreID       string
	Name          string
	Description   string
	Price         decimal.Decimal
	MRP           decimal.Decimal
	Category      string
	Images        []string
	StockQuantity int
	InStock       bool // 缓存字段，恒等于 StockQuantity > 0
	Review

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProductInput 店主提交商品时的输入
type NewProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	MRP           decimal.Decimal
	Category      string
	Images        []string
	StockQuantity int
}

// NewProduct 创建一个待审核商品
func NewProduct(id, storeID string, in NewProductInput, now time.Time) (*Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("invalid_name", "product name is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, apperr.Validation("invalid_category", "category is required")
	}
	if !in.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	mrp := in.MRP
	if mrp.IsZero() {
		mrp = in.Price
	}
	if mrp.LessThan(in.Price) {
		return nil, apperr.Validation("invalid_mrp", "mrp cannot be lower than price")
	}
	if len(in.Images) > MaxProductImages {
		return nil, ErrTooManyImages
	}
	if in.StockQuantity < 0 {
		return nil, apperr.Validation("invalid_stock", "stock quantity cannot be negative")
	}
	return &Product{
		ID:            id,
		StoreID:       storeID,
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Price:         in.Price,
		MRP:           mrp,
		Category:      strings.ToLower(strings.TrimSpace(in.Category)),
		Images:        append([]string(nil), in.Images...),
		StockQuantity: in.StockQuantity,
		InStock:       in.StockQuantity > 0,
		Review:        Review{Status: ReviewPending},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ApplyReview 管理员审核，只能作用于 pending 商品
func (p *Product) ApplyReview(decision ReviewStatus, reviewer, note string, now time.Time) error {
	if err := p.decide("product", decision, reviewer, note, now); err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

// Resubmit 店主重新提交被驳回的商品。
// 检查顺序: 店铺可经营 -> 商品处于 rejected。
func (p *Product) Resubmit(store *Store, now time.Time) error {
	if !store.CanSell() {
		return ErrStoreNotSelling
	}
	if p.Status != ReviewRejected {
		return apperr.New(apperr.ErrInvalidTransition, "not_rejected", "only rejected products can be resubmitted")
	}
	p.Status = ReviewPending
	p.AdminNote = ""
	p.ReviewedBy = ""
	p.ReviewedAt = nil
	p.UpdatedAt = now
	return nil
}

// UpdatePrice 修改售价，不影响审核状态和库存
func (p *Product) UpdatePrice(price decimal.Decimal, now time.Time) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	p.Price = price
	p.UpdatedAt = now
	return nil
}

// StockOp 库存操作
type StockOp string

const (
	StockAdd      StockOp = "add"
	StockSubtract StockOp = "subtract"
)

// AdjustStock 增减库存，扣减时最低到 0；之后同步 InStock
func (p *Product) AdjustStock(op StockOp, quantity int, now time.Time) error {
	if quantity <= 0 {
		return ErrInvalidStockQuantity
	}
	switch op {
	case StockAdd:
		p.StockQuantity += quantity
	case StockSubtract:
		p.StockQuantity -= quantity
		if p.StockQuantity < 0 {
			p.StockQuantity = 0
		}
	default:
		return ErrInvalidStockOp
	}
	p.InStock = p.StockQuantity > 0
	p.UpdatedAt = now
	return nil
}

// ErrInsufficientStock 下单数量超过库存
var ErrInsufficientStock = apperr.Validation("insufficient_stock", "not enough stock for this product")

// Reserve 下单扣减库存，不允许截断到 0
func (p *Product) Reserve(quantity int, now time.Time) error {
	if quantity <= 0 {
		return ErrInvalidStockQuantity
	}
	if p.StockQuantity < quantity {
		return ErrInsufficientStock
	}
	return p.AdjustStock(StockSubtract, quantity, now)
}
