package infrastructure

import (
	"bazaar/internal/pkg/database"
	"bazaar/internal/service/catalog/domain"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormCouponRepository 是 CouponRepository 的 GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) CreateStoreCoupon(ctx context.Context, c *domain.StoreCoupon) error {
	err := database.Conn(ctx, r.db).Create(FromDomainStoreCoupon(c)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateCouponCode
	}
	return errors.Wrap(err, "create store coupon")
}

func (r *GormCouponRepository) findStoreCoupon(ctx context.Context, query string, args ...any) (*domain.StoreCoupon, error) {
	var m StoreCouponModel
	err := database.Conn(ctx, r.db).Where(query, args...).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStoreCouponNotFound
		}
		return nil, errors.Wrap(err, "find store coupon")
	}
	return ToDomainStoreCoupon(&m), nil
}

func (r *GormCouponRepository) FindStoreCouponByID(ctx context.Context, id string) (*domain.StoreCoupon, error) {
	return r.findStoreCoupon(ctx, "id = ?", id)
}

func (r *GormCouponRepository) FindStoreCouponByCode(ctx context.Context, storeID, code string) (*domain.StoreCoupon, error) {
	return r.findStoreCoupon(ctx, "store_id = ? AND code = ?", storeID, domain.NormalizeCode(code))
}

// UpdateStoreCouponReview 条件更新审核字段
func (r *GormCouponRepository) UpdateStoreCouponReview(ctx context.Context, c *domain.StoreCoupon, from domain.ReviewStatus) error {
	res := database.Conn(ctx, r.db).Model(&StoreCouponModel{}).
		Where("id = ? AND status = ?", c.ID, from).
		Updates(map[string]any{
			"status":      c.Status,
			"admin_note":  c.AdminNote,
			"reviewed_by": c.ReviewedBy,
			"reviewed_at": c.ReviewedAt,
			"updated_at":  c.UpdatedAt,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update store coupon review")
	}
	if res.RowsAffected == 0 {
		return domain.ErrStateChanged
	}
	return nil
}

func (r *GormCouponRepository) SetStoreCouponActive(ctx context.Context, id string, active bool, at time.Time) error {
	res := database.Conn(ctx, r.db).Model(&StoreCouponModel{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": at})
	if res.Error != nil {
		return errors.Wrap(res.Error, "toggle store coupon")
	}
	if res.RowsAffected == 0 {
		return domain.ErrStoreCouponNotFound
	}
	return nil
}

func (r *GormCouponRepository) ListStoreCoupons(ctx context.Context, f domain.StoreCouponFilter) ([]*domain.StoreCoupon, int64, error) {
	base := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&StoreCouponModel{})
		if f.StoreID != "" {
			q = q.Where("store_id = ?", f.StoreID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		return q
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count store coupons")
	}
	var models []StoreCouponModel
	if err := base().Order("created_at DESC, id").Offset(f.Offset).Limit(f.Limit).Find(&models).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list store coupons")
	}
	out := make([]*domain.StoreCoupon, 0, len(models))
	for i := range models {
		out = append(out, ToDomainStoreCoupon(&models[i]))
	}
	return out, total, nil
}

func (r *GormCouponRepository) CountStoreCouponsByStatus(ctx context.Context) (map[domain.ReviewStatus]int64, error) {
	var rows []statusCount
	err := database.Conn(ctx, r.db).Model(&StoreCouponModel{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count store coupons by status")
	}
	out := make(map[domain.ReviewStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.ReviewStatus(row.Status)] = row.N
	}
	return out, nil
}

// redeem 原子地 used_count + 1，已达上限时不更新
func redeem(db *gorm.DB, model any, where string, arg any) error {
	res := db.Model(model).
		Where(where, arg).
		Where("usage_limit = 0 OR used_count < usage_limit").
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if res.Error != nil {
		return errors.Wrap(res.Error, "redeem coupon")
	}
	if res.RowsAffected == 0 {
		return domain.ErrCouponUsageExceeded
	}
	return nil
}

func (r *GormCouponRepository) RedeemStoreCoupon(ctx context.Context, id string) error {
	return redeem(database.Conn(ctx, r.db), &StoreCouponModel{}, "id = ?", id)
}

func (r *GormCouponRepository) CreateCoupon(ctx context.Context, c *domain.Coupon) error {
	err := database.Conn(ctx, r.db).Create(FromDomainCoupon(c)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateCouponCode
	}
	return errors.Wrap(err, "create coupon")
}

func (r *GormCouponRepository) FindCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var m CouponModel
	err := database.Conn(ctx, r.db).Where("code = ?", domain.NormalizeCode(code)).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, errors.Wrap(err, "find coupon")
	}
	return ToDomainCoupon(&m), nil
}

func (r *GormCouponRepository) ListCoupons(ctx context.Context, f domain.CouponFilter) ([]*domain.Coupon, int64, error) {
	base := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&CouponModel{})
		if f.OnlyAvailable {
			q = q.Where("is_active = ? AND expires_at > ?", true, f.Now).
				Where("usage_limit = 0 OR used_count < usage_limit")
		}
		return q
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count coupons")
	}
	q := base().Order("created_at DESC, code")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	var models []CouponModel
	if err := q.Find(&models).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list coupons")
	}
	out := make([]*domain.Coupon, 0, len(models))
	for i := range models {
		out = append(out, ToDomainCoupon(&models[i]))
	}
	return out, total, nil
}

func (r *GormCouponRepository) SetCouponActive(ctx context.Context, code string, active bool) error {
	res := database.Conn(ctx, r.db).Model(&CouponModel{}).Where("code = ?", domain.NormalizeCode(code)).
		Update("is_active", active)
	if res.Error != nil {
		return errors.Wrap(res.Error, "toggle coupon")
	}
	if res.RowsAffected == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (r *GormCouponRepository) RedeemCoupon(ctx context.Context, code string) error {
	return redeem(database.Conn(ctx, r.db), &CouponModel{}, "code = ?", domain.NormalizeCode(code))
}
