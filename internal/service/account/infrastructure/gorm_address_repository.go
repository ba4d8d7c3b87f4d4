package infrastructure

import (
	"bazaar/internal/pkg/database"
	"bazaar/internal/service/account/domain"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormAddressRepository 是 AddressRepository 的 GORM 实现
type GormAddressRepository struct {
	defaultRows[AddressModel]
}

func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{defaultRows[AddressModel]{db: db, notFound: domain.ErrAddressNotFound}}
}

func (r *GormAddressRepository) Create(ctx context.Context, a *domain.Address) error {
	return errors.Wrap(database.Conn(ctx, r.db).Create(fromDomainAddress(a)).Error, "create address")
}

func (r *GormAddressRepository) first(ctx context.Context, query string, args ...any) (*domain.Address, error) {
	var m AddressModel
	if err := database.Conn(ctx, r.db).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, errors.Wrap(err, "find address")
	}
	return toDomainAddress(&m), nil
}

func (r *GormAddressRepository) FindByID(ctx context.Context, userID, id string) (*domain.Address, error) {
	return r.first(ctx, "id = ? AND user_id = ?", id, userID)
}

func (r *GormAddressRepository) FindDefault(ctx context.Context, userID string) (*domain.Address, error) {
	return r.first(ctx, "user_id = ? AND is_default = ?", userID, true)
}

// ListByUser 默认地址排在最前，其余按创建时间倒序
func (r *GormAddressRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Address, error) {
	var models []AddressModel
	err := database.Conn(ctx, r.db).Where("user_id = ?", userID).
		Order("is_default DESC").Order("created_at DESC").Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	out := make([]*domain.Address, 0, len(models))
	for i := range models {
		out = append(out, toDomainAddress(&models[i]))
	}
	return out, nil
}
