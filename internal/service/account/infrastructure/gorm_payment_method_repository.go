package infrastructure

import (
	"bazaar/internal/pkg/database"
	"bazaar/internal/service/account/domain"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormPaymentMethodRepository 是 PaymentMethodRepository 的 GORM 实现
type GormPaymentMethodRepository struct {
	defaultRows[PaymentMethodModel]
}

func NewGormPaymentMethodRepository(db *gorm.DB) *GormPaymentMethodRepository {
	return &GormPaymentMethodRepository{defaultRows[PaymentMethodModel]{db: db, notFound: domain.ErrPaymentMethodNotFound}}
}

func (r *GormPaymentMethodRepository) Create(ctx context.Context, m *domain.SavedPaymentMethod) error {
	return errors.Wrap(database.Conn(ctx, r.db).Create(fromDomainPaymentMethod(m)).Error, "create payment method")
}

func (r *GormPaymentMethodRepository) FindDefault(ctx context.Context, userID string) (*domain.SavedPaymentMethod, error) {
	var m PaymentMethodModel
	err := database.Conn(ctx, r.db).Where("user_id = ? AND is_default = ?", userID, true).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentMethodNotFound
		}
		return nil, errors.Wrap(err, "find default payment method")
	}
	return toDomainPaymentMethod(&m), nil
}

func (r *GormPaymentMethodRepository) ListByUser(ctx context.Context, userID string) ([]*domain.SavedPaymentMethod, error) {
	var models []PaymentMethodModel
	err := database.Conn(ctx, r.db).Where("user_id = ?", userID).
		Order("is_default DESC").Order("created_at DESC").Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list payment methods")
	}
	out := make([]*domain.SavedPaymentMethod, 0, len(models))
	for i := range models {
		out = append(out, toDomainPaymentMethod(&models[i]))
	}
	return out, nil
}
