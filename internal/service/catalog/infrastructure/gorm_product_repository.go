package infrastructure

import (
	"bazaar/internal/pkg/database"
	"bazaar/internal/service/catalog/domain"
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PublicScope 公开可见性的 SQL 形式，与 domain.IsPubliclyVisible 使用同一组常量
func PublicScope(db *gorm.DB) *gorm.DB {
	return db.Joins("JOIN stores ON stores.id = products.store_id").
		Where("products.status = ?", domain.ReviewApproved).
		Where("products.stock_quantity > ?", 0).
		Where("stores.status = ?", domain.StoreStatusApproved).
		Where("stores.is_active = ?", true)
}

// GormProductRepository 是 ProductRepository 的 GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return errors.Wrap(database.Conn(ctx, r.db).Create(FromDomainProduct(p)).Error, "create product")
}

func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var m ProductModel
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "find product")
	}
	return ToDomainProduct(&m), nil
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []ProductModel
	if err := database.Conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	for i := range models {
		out[models[i].ID] = ToDomainProduct(&models[i])
	}
	return out, nil
}

// UpdateReview 条件更新审核字段，并发审核时只有一个请求能命中
func (r *GormProductRepository) UpdateReview(ctx context.Context, p *domain.Product, from domain.ReviewStatus) error {
	res := database.Conn(ctx, r.db).Model(&ProductModel{}).
		Where("id = ? AND status = ?", p.ID, from).
		Updates(map[string]any{
			"status":      p.Status,
			"admin_note":  p.AdminNote,
			"reviewed_by": p.ReviewedBy,
			"reviewed_at": p.ReviewedAt,
			"updated_at":  p.UpdatedAt,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update product review")
	}
	if res.RowsAffected == 0 {
		return domain.ErrStateChanged
	}
	return nil
}

func (r *GormProductRepository) UpdatePrice(ctx context.Context, id string, price decimal.Decimal, at time.Time) error {
	res := database.Conn(ctx, r.db).Model(&ProductModel{}).Where("id = ?", id).
		Updates(map[string]any{"price": price, "updated_at": at})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update product price")
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// UpdateStock 乐观并发: WHERE stock_quantity = expected
func (r *GormProductRepository) UpdateStock(ctx context.Context, p *domain.Product, expected int) error {
	res := database.Conn(ctx, r.db).Model(&ProductModel{}).
		Where("id = ? AND stock_quantity = ?", p.ID, expected).
		Updates(map[string]any{
			"stock_quantity": p.StockQuantity,
			"in_stock":       p.InStock,
			"updated_at":     p.UpdatedAt,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update product stock")
	}
	if res.RowsAffected == 0 {
		return domain.ErrStateChanged
	}
	return nil
}

// ReserveStock 单条 UPDATE 完成扣减，WHERE 保证库存不会变成负数。
// in_stock 的赋值排在 stock_quantity 之前，两种数据库看到的都是旧值。
func (r *GormProductRepository) ReserveStock(ctx context.Context, id string, qty int, at time.Time) error {
	res := database.Conn(ctx, r.db).Model(&ProductModel{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Updates(map[string]any{
			"in_stock":       gorm.Expr("stock_quantity > ?", qty),
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"updated_at":     at,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "reserve product stock")
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func (r *GormProductRepository) ReleaseStock(ctx context.Context, id string, qty int, at time.Time) error {
	res := database.Conn(ctx, r.db).Model(&ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"in_stock":       true,
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"updated_at":     at,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "release product stock")
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *GormProductRepository) List(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error) {
	base := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&ProductModel{})
		if f.StoreID != "" {
			q = q.Where("store_id = ?", f.StoreID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.Category != "" {
			q = q.Where("category = ?", strings.ToLower(f.Category))
		}
		return q
	}
	return r.page(base, "created_at DESC, id", f.Offset, f.Limit, "")
}

// ListPublic 公开列表，可见性条件由 PublicScope 强制附加
func (r *GormProductRepository) ListPublic(ctx context.Context, f domain.PublicProductFilter) ([]*domain.Product, int64, error) {
	base := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&ProductModel{}).Scopes(PublicScope)
		if f.StoreID != "" {
			q = q.Where("products.store_id = ?", f.StoreID)
		}
		if f.Category != "" {
			q = q.Where("products.category = ?", strings.ToLower(f.Category))
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			like := "%" + escapeLike(strings.ToLower(s)) + "%"
			q = q.Where("(LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR products.category LIKE ?)", like, like, like)
		}
		return q
	}
	return r.page(base, "products.created_at DESC, products.id", f.Offset, f.Limit, "products.*")
}

func (r *GormProductRepository) page(base func() *gorm.DB, order string, offset, limit int, sel string) ([]*domain.Product, int64, error) {
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}
	q := base()
	if sel != "" {
		// JOIN 之后必须只取 products 的列，否则同名列会互相覆盖
		q = q.Select(sel)
	}
	var models []ProductModel
	if err := q.Order(order).Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}
	out := make([]*domain.Product, 0, len(models))
	for i := range models {
		out = append(out, ToDomainProduct(&models[i]))
	}
	return out, total, nil
}

// Categories 返回当前有公开商品的分类
func (r *GormProductRepository) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := database.Conn(ctx, r.db).Model(&ProductModel{}).Scopes(PublicScope).
		Distinct("products.category").Order("products.category").Pluck("products.category", &cats).Error
	return cats, errors.Wrap(err, "list categories")
}

func (r *GormProductRepository) CountByStatus(ctx context.Context) (map[domain.ReviewStatus]int64, error) {
	var rows []statusCount
	err := database.Conn(ctx, r.db).Model(&ProductModel{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count products by status")
	}
	out := make(map[domain.ReviewStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.ReviewStatus(row.Status)] = row.N
	}
	return out, nil
}
