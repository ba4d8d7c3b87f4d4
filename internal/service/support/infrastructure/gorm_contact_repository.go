package infrastructure

import (
	"bazaar/internal/pkg/database"
	"bazaar/internal/service/support/domain"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormContactRepository 是 ContactRepository 的 GORM 实现
type GormContactRepository struct {
	db *gorm.DB
}

func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

func (r *GormContactRepository) Create(ctx context.Context, c *domain.ContactForm) error {
	return errors.Wrap(database.Conn(ctx, r.db).Create(fromDomainContact(c)).Error, "create contact form")
}

func (r *GormContactRepository) FindByID(ctx context.Context, id string) (*domain.ContactForm, error) {
	var m ContactModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrContactNotFound
		}
		return nil, errors.Wrap(err, "find contact form")
	}
	return toDomainContact(&m), nil
}

func (r *GormContactRepository) Update(ctx context.Context, c *domain.ContactForm, from domain.ContactStatus) error {
	res := database.Conn(ctx, r.db).Model(&ContactModel{}).
		Where("id = ? AND status = ?", c.ID, from).
		Updates(map[string]any{
			"status":     c.Status,
			"reply":      c.Reply,
			"replied_by": c.RepliedBy,
			"replied_at": c.RepliedAt,
			"updated_at": c.UpdatedAt,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update contact form")
	}
	if res.RowsAffected == 0 {
		return domain.ErrStateChanged
	}
	return nil
}

func (r *GormContactRepository) List(ctx context.Context, f domain.ContactFilter) ([]*domain.ContactForm, int64, error) {
	base := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&ContactModel{})
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		return q
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count contact forms")
	}
	var models []ContactModel
	if err := base().Order("created_at DESC, id DESC").Offset(f.Offset).Limit(f.Limit).Find(&models).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list contact forms")
	}
	out := make([]*domain.ContactForm, 0, len(models))
	for i := range models {
		out = append(out, toDomainContact(&models[i]))
	}
	return out, total, nil
}

func (r *GormContactRepository) CountByStatus(ctx context.Context) (map[domain.ContactStatus]int64, error) {
	var rows []struct {
		Status domain.ContactStatus
		N      int64
	}
	err := database.Conn(ctx, r.db).Model(&ContactModel{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count contact forms by status")
	}
	out := map[domain.ContactStatus]int64{domain.ContactPending: 0, domain.ContactReplied: 0, domain.ContactClosed: 0}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
