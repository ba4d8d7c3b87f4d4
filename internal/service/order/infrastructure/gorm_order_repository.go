package infrastructure

import (
	"bazaar/internal/pkg/database"
	"bazaar/internal/service/order/domain"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var canonicalPayments = []string{string(domain.PaymentCOD), string(domain.PaymentCard), string(domain.PaymentUPI)}

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return errors.Wrap(database.Conn(ctx, r.db).Create(fromDomainOrder(o)).Error, "create order")
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var m OrderModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}
	return toDomainOrder(&m), nil
}

// UpdateStatus 以 from 为条件写入新状态
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, o *domain.Order, from domain.Status) error {
	res := database.Conn(ctx, r.db).Model(&OrderModel{}).
		Where("id = ? AND status = ?", o.ID, from).
		Updates(map[string]any{"status": o.Status, "updated_at": o.UpdatedAt})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return domain.ErrStateChanged
	}
	return nil
}

func (r *GormOrderRepository) List(ctx context.Context, f domain.OrderFilter) ([]*domain.Order, int64, error) {
	base := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&OrderModel{})
		if f.UserID != "" {
			q = q.Where("user_id = ?", f.UserID)
		}
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
		return nil, 0, errors.Wrap(err, "count orders")
	}
	var models []OrderModel
	if err := base().Order("created_at DESC, id DESC").Offset(f.Offset).Limit(f.Limit).Find(&models).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}
	out := make([]*domain.Order, 0, len(models))
	for i := range models {
		out = append(out, toDomainOrder(&models[i]))
	}
	return out, total, nil
}

func (r *GormOrderRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&OrderModel{}).
		Where("user_id = ? AND status <> ?", userID, domain.StatusCancelled).
		Count(&n).Error
	return n, errors.Wrap(err, "count user orders")
}

func (r *GormOrderRepository) ListLegacyPayments(ctx context.Context, afterID string, limit int) ([]domain.LegacyPayment, error) {
	var models []OrderModel
	err := database.Conn(ctx, r.db).Select("id", "payment_method").
		Where("id > ? AND payment_method NOT IN ?", afterID, canonicalPayments).
		Order("id").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list legacy payments")
	}
	out := make([]domain.LegacyPayment, 0, len(models))
	for _, m := range models {
		out = append(out, domain.LegacyPayment{OrderID: m.ID, Raw: m.PaymentMethod})
	}
	return out, nil
}

func (r *GormOrderRepository) RewritePayment(ctx context.Context, orderID, raw string, to domain.PaymentMethod) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&OrderModel{}).
		Where("id = ? AND payment_method = ?", orderID, raw).
		UpdateColumn("payment_method", string(to))
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "rewrite payment method")
	}
	return res.RowsAffected > 0, nil
}
